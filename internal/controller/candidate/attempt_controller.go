package candidate

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

type AttemptController struct {
	attemptService   service.AttemptService
	violationService service.ViolationService
}

func NewAttemptController(attemptService service.AttemptService, violationService service.ViolationService) *AttemptController {
	return &AttemptController{
		attemptService:   attemptService,
		violationService: violationService,
	}
}

// StartAttempt godoc
// @Summary (Candidate) Start a test attempt
// @Description Starts an attempt through a public link token or an invitation token. Access gates (active flag, expiry, usage cap, time window, seat cap) are checked first.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Param start_data body dto.AttemptStartDTO true "Link or invitation token plus optional candidate identity"
// @Success 201 {object} dto.AttemptDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 403 {object} dto.AccessDeniedResponse "Access denied with reason and, for window denials, the computed window"
// @Failure 404 {object} dto.ErrorResponse "Unknown link or invitation token"
// @Failure 409 {object} dto.ErrorResponse "Invitation already has a completed attempt"
// @Router /attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	var req dto.AttemptStartDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("StartAttempt: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	if (req.LinkToken == "") == (req.InvitationToken == "") {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Provide exactly one of link_token or invitation_token"})
		return
	}

	attempt, err := c.attemptService.StartAttempt(req)
	if err != nil {
		var denied *service.AccessDeniedError
		switch {
		case errors.As(err, &denied):
			ctx.JSON(http.StatusForbidden, dto.AccessDeniedResponse{
				Message:     "Access denied",
				Reason:      string(denied.Decision.Reason),
				WindowStart: denied.Decision.WindowStart,
				WindowEnd:   denied.Decision.WindowEnd,
			})
		case errors.Is(err, repository.ErrLinkNotFound), errors.Is(err, repository.ErrInvitationNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		case errors.Is(err, repository.ErrAlreadyCompleted):
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
		default:
			log.Error().Err(err).Msg("StartAttempt: service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to start attempt", Details: []string{err.Error()}})
		}
		return
	}
	ctx.JSON(http.StatusCreated, attempt)
}

// FinalizeAttempt godoc
// @Summary (Candidate) Submit all answers and finalize the attempt
// @Description Writes the full answer batch, computes the score and per-category breakdown, and completes the attempt. Finalize succeeds at most once.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param answers body dto.AttemptFinalizeDTO true "Answers keyed by question ID"
// @Success 200 {object} dto.AttemptDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid attempt ID or request body"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already finalized or terminated"
// @Router /attempts/{attempt_id}/answers [post]
func (c *AttemptController) FinalizeAttempt(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "attempt_id")
	if !ok {
		return
	}

	var req dto.AttemptFinalizeDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("FinalizeAttempt: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	attempt, err := c.attemptService.FinalizeAttempt(attemptID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAttemptNotFound), errors.Is(err, repository.ErrTestNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		case errors.Is(err, repository.ErrAlreadyFinalized):
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
		default:
			log.Error().Err(err).Uint("attemptID", attemptID).Msg("FinalizeAttempt: service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to finalize attempt", Details: []string{err.Error()}})
		}
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

// RecordProctorEvents godoc
// @Summary (Candidate) Record a batch of proctoring events
// @Description Appends the batch to the audit log and applies strike-worthy events to the attempt's violation count. Crossing the budget terminates the attempt in this call. Batches for an already terminated attempt are recorded but change nothing.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param events body dto.ProctorEventBatchDTO true "Proctoring event batch"
// @Success 200 {object} dto.ViolationStateDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid attempt ID or request body"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id}/proctor-events [post]
func (c *AttemptController) RecordProctorEvents(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "attempt_id")
	if !ok {
		return
	}

	var req dto.ProctorEventBatchDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("RecordProctorEvents: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	state, err := c.violationService.RecordEvents(attemptID, req)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("RecordProctorEvents: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to record proctor events", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// GetAttempt godoc
// @Summary (Candidate) Get attempt details
// @Tags Candidate - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid attempt ID"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "attempt_id")
	if !ok {
		return
	}

	attempt, err := c.attemptService.GetAttempt(attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("GetAttempt: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve attempt", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

func parseID(ctx *gin.Context, param string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(param), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + param + " format"})
		return 0, false
	}
	return uint(val), true
}
