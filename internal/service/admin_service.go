package service

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/prateek-combat/critest/config"
	"github.com/prateek-combat/critest/internal/dto"
	"github.com/prateek-combat/critest/internal/model"
	"github.com/prateek-combat/critest/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// AdminService covers the authoring surface: tests with their answer keys,
// shareable links, invitations, and time slots.
type AdminService interface {
	CreateTest(req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
	GetTest(testID uint) (*dto.TestResponseDTO, error)
	CreatePublicLink(testID uint, req dto.PublicLinkCreateDTO) (*dto.PublicLinkResponseDTO, error)
	CreateInvitation(testID uint, req dto.InvitationCreateDTO) (*dto.InvitationResponseDTO, error)
	CreateTimeSlot(req dto.TimeSlotCreateDTO) (*dto.TimeSlotResponseDTO, error)
}

type adminService struct {
	testRepo       repository.TestRepository
	linkRepo       repository.PublicLinkRepository
	invitationRepo repository.InvitationRepository
	slotRepo       repository.TimeSlotRepository
	resolver       TimezoneResolver
	cfg            *config.Config
}

func NewAdminService(
	testRepo repository.TestRepository,
	linkRepo repository.PublicLinkRepository,
	invitationRepo repository.InvitationRepository,
	slotRepo repository.TimeSlotRepository,
	resolver TimezoneResolver,
	cfg *config.Config,
) AdminService {
	return &adminService{
		testRepo:       testRepo,
		linkRepo:       linkRepo,
		invitationRepo: invitationRepo,
		slotRepo:       slotRepo,
		resolver:       resolver,
		cfg:            cfg,
	}
}

func (s *adminService) CreateTest(req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	orderSeen := make(map[int]bool, len(req.Questions))
	questions := make([]model.Question, 0, len(req.Questions))
	for _, qDto := range req.Questions {
		if orderSeen[qDto.OrderInTest] {
			return nil, fmt.Errorf("duplicate order_in_test %d found in questions", qDto.OrderInTest)
		}
		orderSeen[qDto.OrderInTest] = true

		if qDto.CorrectAnswerIndex < 0 || qDto.CorrectAnswerIndex >= len(qDto.Options) {
			return nil, fmt.Errorf("question '%s': correct_answer_index %d is out of range for %d options",
				qDto.Text, qDto.CorrectAnswerIndex, len(qDto.Options))
		}

		options, err := json.Marshal(qDto.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options for question '%s': %w", qDto.Text, err)
		}
		questions = append(questions, model.Question{
			Text:               qDto.Text,
			Options:            datatypes.JSON(options),
			CorrectAnswerIndex: qDto.CorrectAnswerIndex,
			Category:           qDto.Category,
			OrderInTest:        qDto.OrderInTest,
		})
	}

	maxCopyEvents := s.cfg.Attempt.DefaultMaxCopyEvents
	if req.MaxCopyEventsAllowed != nil {
		maxCopyEvents = *req.MaxCopyEventsAllowed
	}

	test := model.Test{
		Title:                req.Title,
		Description:          req.Description,
		MaxCopyEventsAllowed: maxCopyEvents,
		Questions:            questions,
	}
	if err := s.testRepo.Create(&test); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("CreateTest: failed to create test")
		return nil, fmt.Errorf("failed to create test: %w", err)
	}
	return s.testToResponse(&test)
}

func (s *adminService) GetTest(testID uint) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		return nil, err
	}
	return s.testToResponse(test)
}

func (s *adminService) CreatePublicLink(testID uint, req dto.PublicLinkCreateDTO) (*dto.PublicLinkResponseDTO, error) {
	if _, err := s.testRepo.FindByID(testID); err != nil {
		return nil, err
	}
	if req.TimeSlotID != nil {
		if _, err := s.slotRepo.FindByID(*req.TimeSlotID); err != nil {
			return nil, err
		}
	}

	link := model.PublicLink{
		TestID:     testID,
		Token:      uuid.NewString(),
		Title:      req.Title,
		IsActive:   true,
		ExpiresAt:  req.ExpiresAt,
		MaxUses:    req.MaxUses,
		TimeSlotID: req.TimeSlotID,
	}
	if err := s.linkRepo.Create(&link); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("CreatePublicLink: failed to create link")
		return nil, fmt.Errorf("failed to create public link: %w", err)
	}

	var resp dto.PublicLinkResponseDTO
	if err := copier.Copy(&resp, &link); err != nil {
		return nil, fmt.Errorf("error preparing link response: %w", err)
	}
	return &resp, nil
}

func (s *adminService) CreateInvitation(testID uint, req dto.InvitationCreateDTO) (*dto.InvitationResponseDTO, error) {
	if _, err := s.testRepo.FindByID(testID); err != nil {
		return nil, err
	}

	invitation := model.Invitation{
		TestID:         testID,
		Token:          uuid.NewString(),
		CandidateEmail: req.CandidateEmail,
		IsActive:       true,
		ExpiresAt:      req.ExpiresAt,
	}
	if err := s.invitationRepo.Create(&invitation); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("CreateInvitation: failed to create invitation")
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	var resp dto.InvitationResponseDTO
	if err := copier.Copy(&resp, &invitation); err != nil {
		return nil, fmt.Errorf("error preparing invitation response: %w", err)
	}
	return &resp, nil
}

// CreateTimeSlot rejects unknown IANA timezone names up front so the
// read-path UTC fallback only ever covers legacy rows.
func (s *adminService) CreateTimeSlot(req dto.TimeSlotCreateDTO) (*dto.TimeSlotResponseDTO, error) {
	if err := s.resolver.Validate(req.Timezone); err != nil {
		return nil, fmt.Errorf("unrecognized timezone %q: %w", req.Timezone, err)
	}
	if !req.EndDateTime.After(req.StartDateTime) {
		return nil, fmt.Errorf("end_date_time must be after start_date_time")
	}

	slot := model.TimeSlot{
		Name:            req.Name,
		StartDateTime:   req.StartDateTime,
		EndDateTime:     req.EndDateTime,
		Timezone:        req.Timezone,
		MaxParticipants: req.MaxParticipants,
		IsActive:        true,
	}
	if err := s.slotRepo.Create(&slot); err != nil {
		log.Error().Err(err).Msg("CreateTimeSlot: failed to create time slot")
		return nil, fmt.Errorf("failed to create time slot: %w", err)
	}

	var resp dto.TimeSlotResponseDTO
	if err := copier.Copy(&resp, &slot); err != nil {
		return nil, fmt.Errorf("error preparing time slot response: %w", err)
	}
	return &resp, nil
}

func (s *adminService) testToResponse(test *model.Test) (*dto.TestResponseDTO, error) {
	resp := dto.TestResponseDTO{
		ID:          test.ID,
		Title:       test.Title,
		Description: test.Description,
		CreatedAt:   test.CreatedAt,
	}
	for _, q := range test.Questions {
		var options []string
		if len(q.Options) > 0 {
			if err := json.Unmarshal(q.Options, &options); err != nil {
				log.Warn().Err(err).Uint("questionID", q.ID).Msg("Failed to decode stored question options")
			}
		}
		resp.Questions = append(resp.Questions, dto.QuestionResponseDTO{
			ID:          q.ID,
			TestID:      q.TestID,
			Text:        q.Text,
			Options:     options,
			Category:    q.Category,
			OrderInTest: q.OrderInTest,
		})
	}
	return &resp, nil
}
