package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/identity"
	"civic-pulse/internal/linkpolicy"
	"civic-pulse/internal/metrics"
	"civic-pulse/internal/proxy"
	"civic-pulse/internal/repository"
	pulse_errors "civic-pulse/pkg/errors"
	"civic-pulse/pkg/events"
	"civic-pulse/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatsCache caches rendered statistics per poll and viewer class.
type StatsCache interface {
	Get(ctx context.Context, pollID, viewer string, dst interface{}) (bool, error)
	Set(ctx context.Context, pollID, viewer string, value interface{}) error
	Invalidate(ctx context.Context, pollID string) error
}

// PollServiceOptions carries the optional collaborators. Every field may be
// left nil.
type PollServiceOptions struct {
	Publisher events.Publisher
	Cache     StatsCache
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
	Clock     func() time.Time
}

// PollService is the poll aggregate: it orchestrates identity resolution,
// the option store, the vote ledger and moderation.
type PollService struct {
	pollRepo  repository.PollRepository
	voteRepo  repository.VoteRepository
	userRepo  repository.UserRepository
	resolver  *identity.Resolver
	photos    *PhotoService
	access    *proxy.AccessControl
	publisher events.Publisher
	cache     StatsCache
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewPollService(
	pollRepo repository.PollRepository,
	voteRepo repository.VoteRepository,
	userRepo repository.UserRepository,
	resolver *identity.Resolver,
	photos *PhotoService,
	access *proxy.AccessControl,
	opts PollServiceOptions,
) *PollService {
	if opts.Logger == nil {
		opts.Logger = logger.GetGlobalLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if photos == nil {
		photos = NewPhotoService(linkpolicy.NewPhotoValidator(0), nil)
	}
	return &PollService{
		pollRepo:  pollRepo,
		voteRepo:  voteRepo,
		userRepo:  userRepo,
		resolver:  resolver,
		photos:    photos,
		access:    access,
		publisher: opts.Publisher,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		now:       opts.Clock,
	}
}

// OptionInput is an option as submitted by a creator or a voter. The person
// fields are only read for people-mode polls.
type OptionInput struct {
	Text       string
	PhotoURL   string
	Photo      string // data:<mime>;base64,<payload>
	ProfileURL string
}

type CreatePollInput struct {
	Question           string
	Options            []OptionInput
	CreatorAnonymous   bool
	AnonymousResponses bool
	AllowUserOptions   bool
	UserOptionApproval poll.ApprovalMode
	OptionsArePeople   bool
	LinkMode           poll.LinkMode
	AllowedDomains     []string
	VoteClosingDate    *time.Time
	RestrictToLocation bool
	Location           poll.Location
}

// PollView is a poll as seen by one caller.
type PollView struct {
	Poll          poll.Poll
	Tally         poll.Tally
	HasVoted      bool
	VotedOptionID string
	CanModerate   bool
}

type VoteResult struct {
	View    PollView
	Outcome poll.VoteOutcome
}

type AddOptionResult struct {
	View    PollView
	Option  poll.Option
	Message string
}

func (s *PollService) CreatePoll(ctx context.Context, actorID string, in CreatePollInput) (poll.Poll, error) {
	if actorID == "" {
		return poll.Poll{}, fmt.Errorf("sign in to create a poll: %w", pulse_errors.ErrUnauthorized)
	}
	question := poll.CleanText(in.Question)
	if question == "" {
		return poll.Poll{}, fmt.Errorf("question is required: %w", poll.ErrInvalidPoll)
	}

	approval := in.UserOptionApproval
	if approval == "" {
		approval = poll.ApprovalAuto
	}
	if !approval.Valid() {
		return poll.Poll{}, fmt.Errorf("user option approval %q: %w", approval, poll.ErrInvalidPoll)
	}
	policy, err := linkpolicy.NewPolicy(in.LinkMode, in.AllowedDomains)
	if err != nil {
		return poll.Poll{}, err
	}
	if in.VoteClosingDate != nil && !in.VoteClosingDate.After(s.now()) {
		return poll.Poll{}, fmt.Errorf("closing date is in the past: %w", poll.ErrInvalidPoll)
	}
	if in.RestrictToLocation && in.Location.IsZero() {
		return poll.Poll{}, fmt.Errorf("location restriction without a location: %w", poll.ErrInvalidPoll)
	}

	p := poll.Poll{
		ID:                 uuid.NewString(),
		Question:           question,
		CreatorID:          actorID,
		CreatorAnonymous:   in.CreatorAnonymous,
		AnonymousResponses: in.AnonymousResponses,
		AllowUserOptions:   in.AllowUserOptions,
		UserOptionApproval: approval,
		OptionsArePeople:   in.OptionsArePeople,
		LinkPolicy:         policy,
		VoteClosingDate:    in.VoteClosingDate,
		RestrictToLocation: in.RestrictToLocation,
		Location:           in.Location,
	}

	checked := make([]checkedOption, 0, len(in.Options))
	for _, opt := range in.Options {
		c, err := s.checkOption(p, opt)
		if err != nil {
			return poll.Poll{}, err
		}
		for _, prev := range checked {
			if poll.NormalizeText(prev.text) == poll.NormalizeText(c.text) {
				return poll.Poll{}, fmt.Errorf("%q: %w", c.text, poll.ErrDuplicateOptionText)
			}
		}
		checked = append(checked, c)
	}
	if len(checked) < 2 && !p.AllowUserOptions {
		return poll.Poll{}, poll.ErrNotEnoughOptions
	}

	for i, c := range checked {
		o, err := s.buildOption(ctx, p, c, poll.OptionApproved, nil)
		if err != nil {
			return poll.Poll{}, err
		}
		o.Position = i
		p.Options = append(p.Options, o)
	}

	if err := s.pollRepo.Create(ctx, &p); err != nil {
		return poll.Poll{}, err
	}
	s.log.WithContext(ctx).Info("poll created",
		zap.String("poll_id", p.ID),
		zap.Int("options", len(p.Options)),
		zap.Bool("anonymous_responses", p.AnonymousResponses))
	return p, nil
}

// GetPoll returns the poll with its ledger tally and the caller's vote.
// Pending options are shown to moderators only.
func (s *PollService) GetPoll(ctx context.Context, pollID string, req identity.Request) (PollView, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return PollView{}, err
	}
	return s.view(ctx, p, req)
}

func (s *PollService) view(ctx context.Context, p poll.Poll, req identity.Request) (PollView, error) {
	moderator, err := s.access.IsModerator(ctx, p, req.UserID)
	if err != nil {
		return PollView{}, err
	}
	tally, err := s.tally(ctx, p)
	if err != nil {
		return PollView{}, err
	}

	v := PollView{Poll: p, Tally: tally, CanModerate: moderator}
	if !moderator {
		v.Poll.Options = p.ApprovedOptions()
	}

	id, err := s.resolver.Resolve(req, false)
	if err != nil {
		return v, nil
	}
	ballot, err := s.findBallot(ctx, p.ID, id)
	switch {
	case err == nil:
		if _, ok := p.FindOption(ballot.OptionID); ok {
			v.HasVoted = true
			v.VotedOptionID = ballot.OptionID
		}
	case errors.Is(err, pulse_errors.ErrNotFound):
	default:
		return PollView{}, err
	}
	return v, nil
}

func (s *PollService) findBallot(ctx context.Context, pollID string, id poll.VoterIdentity) (poll.Ballot, error) {
	switch v := id.(type) {
	case poll.Authenticated:
		return s.voteRepo.FindUserVote(ctx, pollID, v.UserID)
	case poll.Anonymous:
		return s.voteRepo.FindAnonymousVote(ctx, pollID, v.SessionToken, v.ClientIP)
	default:
		return poll.Ballot{}, pulse_errors.ErrNotFound
	}
}

// AddUserOption adds a voter-submitted option. It starts approved or pending
// depending on the poll's approval mode, and is deduplicated against
// approved options only.
func (s *PollService) AddUserOption(ctx context.Context, pollID string, req identity.Request, in OptionInput) (AddOptionResult, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return AddOptionResult{}, err
	}
	if !p.AllowUserOptions {
		return AddOptionResult{}, poll.ErrUserOptionsOff
	}
	if p.IsClosed(s.now()) {
		return AddOptionResult{}, poll.ErrPollClosed
	}
	id, err := s.resolver.Resolve(req, !p.AnonymousResponses)
	if err != nil {
		return AddOptionResult{}, err
	}

	c, err := s.checkOption(p, in)
	if err != nil {
		return AddOptionResult{}, err
	}
	if p.HasApprovedText(c.text, "") {
		return AddOptionResult{}, fmt.Errorf("%q: %w", c.text, poll.ErrDuplicateOptionText)
	}

	var createdBy *string
	if auth, ok := id.(poll.Authenticated); ok {
		createdBy = &auth.UserID
	}
	status := p.SubmissionStatus()
	o, err := s.buildOption(ctx, p, c, status, createdBy)
	if err != nil {
		return AddOptionResult{}, err
	}
	o.Position = p.NextPosition()
	if err := s.pollRepo.AddOption(ctx, &o); err != nil {
		return AddOptionResult{}, err
	}

	s.metrics.OptionSubmitted(string(status))
	s.log.WithContext(ctx).Info("option submitted",
		zap.String("poll_id", p.ID),
		zap.String("option_id", o.ID),
		zap.String("status", string(status)))

	message := "Option added"
	if status == poll.OptionPending {
		message = "Option submitted for approval"
	} else {
		s.afterMutation(ctx, p.ID, events.TypeOptionAdded, map[string]string{"option_id": o.ID})
	}

	view, err := s.reload(ctx, p.ID, req)
	if err != nil {
		return AddOptionResult{}, err
	}
	return AddOptionResult{View: view, Option: o, Message: message}, nil
}

// ApproveOption moves a pending option to approved. Approval is refused when
// an approved option with the same normalized text appeared meanwhile.
func (s *PollService) ApproveOption(ctx context.Context, pollID, optionID, actorID string) (PollView, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return PollView{}, err
	}
	if err := s.access.CanModerate(ctx, p, actorID); err != nil {
		return PollView{}, err
	}
	o, ok := p.FindOption(optionID)
	if !ok {
		return PollView{}, fmt.Errorf("option %s: %w", optionID, poll.ErrOptionNotFound)
	}
	if err := o.Approve(); err != nil {
		return PollView{}, fmt.Errorf("option %s: %w", optionID, err)
	}
	if p.HasApprovedText(o.Text, o.ID) {
		return PollView{}, fmt.Errorf("%q: %w", o.Text, poll.ErrDuplicateOptionText)
	}
	if err := s.pollRepo.ApproveOption(ctx, p.ID, o.ID); err != nil {
		return PollView{}, err
	}

	s.metrics.Moderation("approve")
	s.log.WithContext(ctx).Info("option approved", zap.String("poll_id", p.ID), zap.String("option_id", o.ID))
	s.afterMutation(ctx, p.ID, events.TypeOptionApproved, map[string]string{"option_id": o.ID})
	return s.reload(ctx, p.ID, identity.Request{UserID: actorID})
}

// DeleteOption removes an option in any status. Its ledger entries become
// orphans and stop counting.
func (s *PollService) DeleteOption(ctx context.Context, pollID, optionID, actorID string) (PollView, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return PollView{}, err
	}
	if err := s.access.CanModerate(ctx, p, actorID); err != nil {
		return PollView{}, err
	}
	o, ok := p.FindOption(optionID)
	if !ok {
		return PollView{}, fmt.Errorf("option %s: %w", optionID, poll.ErrOptionNotFound)
	}
	if err := s.pollRepo.DeleteOption(ctx, p.ID, o.ID); err != nil {
		return PollView{}, err
	}
	if person, ok := o.AsPerson(); ok {
		if err := s.photos.Remove(ctx, person); err != nil {
			s.log.WithContext(ctx).Warn("failed to remove option photo", zap.String("option_id", o.ID), zap.Error(err))
		}
	}

	s.metrics.Moderation("delete")
	s.log.WithContext(ctx).Info("option deleted",
		zap.String("poll_id", p.ID),
		zap.String("option_id", o.ID),
		zap.String("status", string(o.Status)))
	s.afterMutation(ctx, p.ID, events.TypeOptionDeleted, map[string]string{"option_id": o.ID})
	return s.reload(ctx, p.ID, identity.Request{UserID: actorID})
}

// PendingOptions is the moderation queue of a poll.
func (s *PollService) PendingOptions(ctx context.Context, pollID, actorID string) ([]poll.Option, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanModerate(ctx, p, actorID); err != nil {
		return nil, err
	}
	return p.PendingOptions(), nil
}

// UpdateLinkPolicy replaces the poll's link policy. Domains are checked here,
// so later URL checks only compare hostnames.
func (s *PollService) UpdateLinkPolicy(ctx context.Context, pollID, actorID string, mode poll.LinkMode, domains []string) (poll.LinkPolicy, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return poll.LinkPolicy{}, err
	}
	if err := s.access.CanModerate(ctx, p, actorID); err != nil {
		return poll.LinkPolicy{}, err
	}
	policy, err := linkpolicy.NewPolicy(mode, domains)
	if err != nil {
		return poll.LinkPolicy{}, err
	}
	if err := s.pollRepo.UpdateLinkPolicy(ctx, p.ID, policy); err != nil {
		return poll.LinkPolicy{}, err
	}
	s.log.WithContext(ctx).Info("link policy updated",
		zap.String("poll_id", p.ID),
		zap.String("mode", string(policy.Mode)),
		zap.Strings("domains", policy.AllowedDomains))
	return policy, nil
}

type checkedOption struct {
	text       string
	photoURL   string
	profileURL string
	photo      *linkpolicy.Photo
}

// checkOption validates an option without side effects.
func (s *PollService) checkOption(p poll.Poll, in OptionInput) (checkedOption, error) {
	c := checkedOption{text: poll.CleanText(in.Text)}
	if c.text == "" {
		return checkedOption{}, poll.ErrEmptyOptionText
	}
	if !p.OptionsArePeople {
		return c, nil
	}

	if u := strings.TrimSpace(in.PhotoURL); u != "" {
		if err := linkpolicy.ValidateURL(u, p.LinkPolicy); err != nil {
			return checkedOption{}, err
		}
		c.photoURL = u
	}
	if u := strings.TrimSpace(in.ProfileURL); u != "" {
		if err := linkpolicy.ValidateURL(u, p.LinkPolicy); err != nil {
			return checkedOption{}, err
		}
		c.profileURL = u
	}
	if strings.TrimSpace(in.Photo) != "" {
		photo, err := s.photos.Check(in.Photo)
		if err != nil {
			return checkedOption{}, err
		}
		c.photo = &photo
	}
	return c, nil
}

// buildOption turns a checked option into a row, storing its photo.
func (s *PollService) buildOption(ctx context.Context, p poll.Poll, c checkedOption, status poll.OptionStatus, createdBy *string) (poll.Option, error) {
	o := poll.Option{
		ID:        uuid.NewString(),
		PollID:    p.ID,
		Kind:      p.OptionKind(),
		Text:      c.text,
		Status:    status,
		CreatedBy: createdBy,
	}
	if o.Kind != poll.OptionKindPerson {
		return o, nil
	}

	if c.photo != nil {
		stored, err := s.photos.Store(ctx, p.ID, *c.photo)
		if err != nil {
			return poll.Option{}, err
		}
		o.Person = stored
	}
	if c.photoURL != "" && o.Person.PhotoURL == "" {
		o.Person.PhotoURL = c.photoURL
	}
	o.Person.ProfileURL = c.profileURL
	return o, nil
}

func (s *PollService) reload(ctx context.Context, pollID string, req identity.Request) (PollView, error) {
	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return PollView{}, err
	}
	return s.view(ctx, p, req)
}

// TallyPayload is the body of poll.tally events.
type TallyPayload struct {
	PerOption map[string]int64 `json:"per_option"`
	Total     int64            `json:"total"`
}

// afterMutation drops cached statistics and announces the new tally. Neither
// step can fail the request that caused it.
func (s *PollService) afterMutation(ctx context.Context, pollID, eventType string, payload interface{}) {
	log := s.log.WithContext(ctx)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, pollID); err != nil {
			log.Warn("failed to invalidate statistics cache", zap.String("poll_id", pollID), zap.Error(err))
		}
	}
	if s.publisher == nil {
		return
	}

	channel := events.PollChannel(pollID)
	if eventType != events.TypeTallyUpdated {
		if err := s.publisher.Publish(ctx, channel, events.NewEvent(eventType, pollID, payload)); err != nil {
			log.Warn("failed to publish poll event", zap.String("poll_id", pollID), zap.Error(err))
		}
	}
	snap, err := s.TallySnapshot(ctx, pollID)
	if err != nil {
		log.Warn("failed to compute tally for event", zap.String("poll_id", pollID), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, channel, snap); err != nil {
		log.Warn("failed to publish tally", zap.String("poll_id", pollID), zap.Error(err))
	}
}
