package handler

import (
	"net/http"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/identity"
	"civic-pulse/internal/services"
	"civic-pulse/internal/transport/httpdto"
	"civic-pulse/pkg/logger"

	"github.com/gin-gonic/gin"
)

type PollHandler struct {
	service *services.PollService
	log     *logger.Logger
}

func NewPollHandler(service *services.PollService, log *logger.Logger) *PollHandler {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &PollHandler{service: service, log: log}
}

func (h *PollHandler) Create(c *gin.Context) {
	var req httpdto.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "invalid-request"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "unauthorized"))
		return
	}

	in := services.CreatePollInput{
		Question:           req.Question,
		CreatorAnonymous:   req.CreatorAnonymous,
		AnonymousResponses: req.AnonymousResponses,
		AllowUserOptions:   req.AllowUserOptions,
		UserOptionApproval: poll.ApprovalMode(req.UserOptionApproval),
		OptionsArePeople:   req.OptionsArePeople,
		VoteClosingDate:    req.VoteClosingDate,
		RestrictToLocation: req.RestrictToLocation,
	}
	for _, o := range req.Options {
		in.Options = append(in.Options, optionInput(o))
	}
	if req.LinkPolicy != nil {
		in.LinkMode = poll.LinkMode(req.LinkPolicy.Mode)
		in.AllowedDomains = req.LinkPolicy.AllowedDomains
	}
	if req.Location != nil {
		in.Location = poll.Location{Country: req.Location.Country, Region: req.Location.Region, City: req.Location.City}
	}

	p, err := h.service.CreatePoll(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromPoll(p, poll.NewTally(p, nil), true)))
}

func (h *PollHandler) Get(c *gin.Context) {
	view, err := h.service.GetPoll(c.Request.Context(), c.Param("id"), voterRequest(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(pollDTO(view)))
}

func (h *PollHandler) Vote(c *gin.Context) {
	var req httpdto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "invalid-request"))
		return
	}
	res, err := h.service.Vote(c.Request.Context(), c.Param("id"), req.OptionID, voterRequest(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.VoteResponse{
		Poll:    pollDTO(res.View),
		Outcome: string(res.Outcome),
	}))
}

func (h *PollHandler) CancelVote(c *gin.Context) {
	view, err := h.service.CancelVote(c.Request.Context(), c.Param("id"), voterRequest(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(pollDTO(view)))
}

func (h *PollHandler) AddOption(c *gin.Context) {
	var req httpdto.OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "invalid-request"))
		return
	}
	res, err := h.service.AddUserOption(c.Request.Context(), c.Param("id"), voterRequest(c), optionInput(req))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewMessageResponse(httpdto.AddOptionResponse{
		Poll:   pollDTO(res.View),
		Option: httpdto.FromOption(res.Option, 0),
	}, res.Message))
}

func (h *PollHandler) PendingOptions(c *gin.Context) {
	userID, _ := services.UserIDFromContext(c.Request.Context())
	options, err := h.service.PendingOptions(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PendingOptionsResponse{Options: httpdto.FromOptions(options)}))
}

func (h *PollHandler) ApproveOption(c *gin.Context) {
	userID, _ := services.UserIDFromContext(c.Request.Context())
	view, err := h.service.ApproveOption(c.Request.Context(), c.Param("id"), c.Param("optionId"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(pollDTO(view)))
}

func (h *PollHandler) DeleteOption(c *gin.Context) {
	userID, _ := services.UserIDFromContext(c.Request.Context())
	view, err := h.service.DeleteOption(c.Request.Context(), c.Param("id"), c.Param("optionId"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(pollDTO(view)))
}

func (h *PollHandler) UpdateLinkPolicy(c *gin.Context) {
	var req httpdto.UpdateLinkPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "invalid-request"))
		return
	}
	userID, _ := services.UserIDFromContext(c.Request.Context())
	policy, err := h.service.UpdateLinkPolicy(c.Request.Context(), c.Param("id"), userID, poll.LinkMode(req.Mode), req.AllowedDomains)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromLinkPolicy(policy)))
}

func (h *PollHandler) Statistics(c *gin.Context) {
	userID, _ := services.UserIDFromContext(c.Request.Context())
	stats, err := h.service.Statistics(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromStatistics(stats)))
}

// Reconcile is mounted behind RequireAdmin.
func (h *PollHandler) Reconcile(c *gin.Context) {
	fixed, err := h.service.ReconcileTally(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ReconcileResponse{Fixed: httpdto.FromDiscrepancies(fixed)}))
}

func pollDTO(view services.PollView) httpdto.PollDTO {
	dto := httpdto.FromPoll(view.Poll, view.Tally, view.CanModerate)
	dto.HasVoted = view.HasVoted
	dto.VotedOptionID = view.VotedOptionID
	return dto
}

func optionInput(o httpdto.OptionRequest) services.OptionInput {
	return services.OptionInput{
		Text:       o.Text,
		PhotoURL:   o.PhotoURL,
		Photo:      o.Photo,
		ProfileURL: o.ProfileURL,
	}
}

// voterRequest collects what the identity resolver needs from the request.
func voterRequest(c *gin.Context) identity.Request {
	ctx := c.Request.Context()
	userID, _ := services.UserIDFromContext(ctx)
	token, _ := services.SessionTokenFromContext(ctx)
	return identity.Request{UserID: userID, SessionToken: token, ClientIP: c.ClientIP()}
}
