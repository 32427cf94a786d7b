package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prateek-combat/critest/internal/dto"
	"github.com/prateek-combat/critest/internal/repository"
	"github.com/prateek-combat/critest/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminController struct {
	adminService   service.AdminService
	attemptService service.AttemptService
}

func NewAdminController(adminService service.AdminService, attemptService service.AttemptService) *AdminController {
	return &AdminController{
		adminService:   adminService,
		attemptService: attemptService,
	}
}

// CreateTest godoc
// @Summary (Admin) Create a new test with its questions
// @Tags Admin
// @Accept json
// @Produce json
// @Param test_data body dto.TestCreateDTO true "Test with questions, answer key, and optional violation budget"
// @Success 201 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Router /admin/tests [post]
func (c *AdminController) CreateTest(ctx *gin.Context) {
	var req dto.TestCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateTest: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	test, err := c.adminService.CreateTest(req)
	if err != nil {
		log.Error().Err(err).Msg("Admin CreateTest: service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create test", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, test)
}

// GetTest godoc
// @Summary (Admin) Get a test with its questions
// @Tags Admin
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [get]
func (c *AdminController) GetTest(ctx *gin.Context) {
	testID, ok := parseID(ctx, "test_id")
	if !ok {
		return
	}
	test, err := c.adminService.GetTest(testID)
	if err != nil {
		if errors.Is(err, repository.ErrTestNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve test", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, test)
}

// CreatePublicLink godoc
// @Summary (Admin) Create a shareable public link for a test
// @Tags Admin
// @Accept json
// @Produce json
// @Param test_id path int true "Test ID"
// @Param link_data body dto.PublicLinkCreateDTO true "Optional expiry, usage cap, and time slot"
// @Success 201 {object} dto.PublicLinkResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Test or time slot not found"
// @Router /admin/tests/{test_id}/links [post]
func (c *AdminController) CreatePublicLink(ctx *gin.Context) {
	testID, ok := parseID(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.PublicLinkCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	link, err := c.adminService.CreatePublicLink(testID, req)
	if err != nil {
		if errors.Is(err, repository.ErrTestNotFound) || errors.Is(err, repository.ErrTimeSlotNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		log.Error().Err(err).Uint("testID", testID).Msg("Admin CreatePublicLink: service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create public link", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, link)
}

// CreateInvitation godoc
// @Summary (Admin) Invite a candidate to a test
// @Tags Admin
// @Accept json
// @Produce json
// @Param test_id path int true "Test ID"
// @Param invitation_data body dto.InvitationCreateDTO true "Candidate email and optional expiry"
// @Success 201 {object} dto.InvitationResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/invitations [post]
func (c *AdminController) CreateInvitation(ctx *gin.Context) {
	testID, ok := parseID(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.InvitationCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	invitation, err := c.adminService.CreateInvitation(testID, req)
	if err != nil {
		if errors.Is(err, repository.ErrTestNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		log.Error().Err(err).Uint("testID", testID).Msg("Admin CreateInvitation: service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create invitation", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, invitation)
}

// CreateTimeSlot godoc
// @Summary (Admin) Create an access window for public links
// @Description Start and end are naive wall-clock readings interpreted in the given IANA timezone. Unknown timezone names are rejected here rather than silently falling back at read time.
// @Tags Admin
// @Accept json
// @Produce json
// @Param slot_data body dto.TimeSlotCreateDTO true "Window, timezone, and optional participant cap"
// @Success 201 {object} dto.TimeSlotResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data (including unrecognized timezone)"
// @Router /admin/time-slots [post]
func (c *AdminController) CreateTimeSlot(ctx *gin.Context) {
	var req dto.TimeSlotCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	slot, err := c.adminService.CreateTimeSlot(req)
	if err != nil {
		log.Warn().Err(err).Msg("Admin CreateTimeSlot: service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create time slot", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, slot)
}

// GetTestAttempts godoc
// @Summary (Admin) List attempt summaries for a test
// @Tags Admin
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Test ID format"
// @Router /admin/tests/{test_id}/attempts [get]
func (c *AdminController) GetTestAttempts(ctx *gin.Context) {
	testID, ok := parseID(ctx, "test_id")
	if !ok {
		return
	}
	attempts, err := c.attemptService.GetAttemptsForTest(testID)
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Admin GetTestAttempts: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve attempts", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

func parseID(ctx *gin.Context, param string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(param), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + param + " format"})
		return 0, false
	}
	return uint(val), true
}
