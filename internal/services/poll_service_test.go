package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/domain/user"
	"civic-pulse/internal/identity"
	"civic-pulse/internal/proxy"
	"civic-pulse/internal/repository"
	"civic-pulse/internal/services"
	"civic-pulse/internal/testutil"
	"civic-pulse/pkg/events"
	"civic-pulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	svc       *services.PollService
	users     repository.UserRepository
	publisher *recordingPublisher
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		db:        db,
		users:     repository.NewUserRepository(db),
		publisher: &recordingPublisher{},
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = services.NewPollService(
		repository.NewPollRepository(db),
		repository.NewVoteRepository(db),
		f.users,
		identity.NewResolver(identity.NewIPHasher("test-key")),
		nil,
		proxy.NewAccessControl(f.users),
		services.PollServiceOptions{
			Publisher: f.publisher,
			Logger:    logger.NewNop(),
			Clock:     func() time.Time { return f.now },
		},
	)
	return f
}

func (f *fixture) addUser(t *testing.T, u user.User) user.User {
	t.Helper()
	if u.Email == "" {
		u.Email = u.ID + "@example.test"
	}
	if u.DisplayName == "" {
		u.DisplayName = u.ID
	}
	if u.Role == "" {
		u.Role = user.RoleUser
	}
	require.NoError(t, f.users.Create(context.Background(), &u))
	return u
}

func textOptions(texts ...string) []services.OptionInput {
	out := make([]services.OptionInput, 0, len(texts))
	for _, t := range texts {
		out = append(out, services.OptionInput{Text: t})
	}
	return out
}

func optionByText(t *testing.T, options []poll.Option, text string) poll.Option {
	t.Helper()
	for _, o := range options {
		if o.Text == text {
			return o
		}
	}
	t.Fatalf("no option %q", text)
	return poll.Option{}
}

func asUser(id string) identity.Request {
	return identity.Request{UserID: id}
}

func anon(token, ip string) identity.Request {
	return identity.Request{SessionToken: token, ClientIP: ip}
}

func TestCreatePoll_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := f.now.Add(-time.Hour)

	tests := []struct {
		name string
		in   services.CreatePollInput
		err  error
	}{
		{"empty question", services.CreatePollInput{Question: "  ", Options: textOptions("a", "b")}, poll.ErrInvalidPoll},
		{"single option", services.CreatePollInput{Question: "Q", Options: textOptions("a")}, poll.ErrNotEnoughOptions},
		{"empty option", services.CreatePollInput{Question: "Q", Options: textOptions("a", " ")}, poll.ErrEmptyOptionText},
		{"duplicate option", services.CreatePollInput{Question: "Q", Options: textOptions("Ναι", " ναι ")}, poll.ErrDuplicateOptionText},
		{"bad approval mode", services.CreatePollInput{Question: "Q", Options: textOptions("a", "b"), UserOptionApproval: "vote"}, poll.ErrInvalidPoll},
		{"closing date in the past", services.CreatePollInput{Question: "Q", Options: textOptions("a", "b"), VoteClosingDate: &past}, poll.ErrInvalidPoll},
		{"restricted without location", services.CreatePollInput{Question: "Q", Options: textOptions("a", "b"), RestrictToLocation: true}, poll.ErrInvalidPoll},
		{"empty allowlist", services.CreatePollInput{Question: "Q", Options: textOptions("a", "b"), LinkMode: poll.LinkModeAllowlist}, poll.ErrInvalidDomain},
		{"bad allowlist domain", services.CreatePollInput{Question: "Q", Options: textOptions("a", "b"), LinkMode: poll.LinkModeAllowlist, AllowedDomains: []string{"exa mple.com"}}, poll.ErrInvalidDomain},
		{
			"people option outside allowlist",
			services.CreatePollInput{
				Question:         "Q",
				OptionsArePeople: true,
				LinkMode:         poll.LinkModeAllowlist,
				AllowedDomains:   []string{"example.com"},
				Options: []services.OptionInput{
					{Text: "Alice", ProfileURL: "https://example.com.evil.net/alice"},
					{Text: "Bob"},
				},
			},
			poll.ErrDomainNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreatePoll(ctx, "creator", tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := f.svc.CreatePoll(ctx, "", services.CreatePollInput{Question: "Q", Options: textOptions("a", "b")})
	assert.Error(t, err)
}

func TestCreatePoll_UserOptionsAllowFewerOptions(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.CreatePoll(context.Background(), "creator", services.CreatePollInput{
		Question:         "Ideas?",
		AllowUserOptions: true,
	})
	require.NoError(t, err)
	assert.Empty(t, p.Options)
	assert.Equal(t, poll.ApprovalAuto, p.UserOptionApproval)
	assert.Equal(t, poll.LinkModeAny, p.LinkPolicy.Mode)
}

func TestVote_RecordChangeAndIdempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{Question: "Q", Options: textOptions("A", "B")})
	require.NoError(t, err)
	a, b := p.Options[0].ID, p.Options[1].ID

	res, err := f.svc.Vote(ctx, p.ID, a, asUser("u1"))
	require.NoError(t, err)
	assert.Equal(t, poll.VoteRecorded, res.Outcome)
	assert.True(t, res.View.HasVoted)
	assert.Equal(t, a, res.View.VotedOptionID)

	res, err = f.svc.Vote(ctx, p.ID, a, asUser("u1"))
	require.NoError(t, err)
	assert.Equal(t, poll.VoteUnchanged, res.Outcome)
	assert.EqualValues(t, 1, res.View.Tally.Total)

	res, err = f.svc.Vote(ctx, p.ID, b, asUser("u1"))
	require.NoError(t, err)
	assert.Equal(t, poll.VoteChanged, res.Outcome)
	assert.Equal(t, map[string]int64{a: 0, b: 1}, res.View.Tally.PerOption)
	assert.EqualValues(t, 1, res.View.Tally.Total)

	diffs, err := f.svc.VerifyTally(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestVote_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	closing := f.now.Add(time.Hour)
	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{
		Question:           "Q",
		Options:            textOptions("A", "B"),
		AllowUserOptions:   true,
		UserOptionApproval: poll.ApprovalCreator,
		VoteClosingDate:    &closing,
	})
	require.NoError(t, err)

	_, err = f.svc.Vote(ctx, p.ID, "", asUser("u1"))
	assert.ErrorIs(t, err, poll.ErrInvalidOptionID)

	_, err = f.svc.Vote(ctx, p.ID, "missing", asUser("u1"))
	assert.ErrorIs(t, err, poll.ErrOptionNotApproved)

	_, err = f.svc.Vote(ctx, "missing", p.Options[0].ID, asUser("u1"))
	assert.ErrorIs(t, err, poll.ErrPollNotFound)

	_, err = f.svc.Vote(ctx, p.ID, p.Options[0].ID, anon("s1", "1.2.3.4"))
	assert.ErrorIs(t, err, poll.ErrIdentityUnavailable)

	added, err := f.svc.AddUserOption(ctx, p.ID, asUser("u2"), services.OptionInput{Text: "C"})
	require.NoError(t, err)
	_, err = f.svc.Vote(ctx, p.ID, added.Option.ID, asUser("u1"))
	assert.ErrorIs(t, err, poll.ErrOptionNotApproved)

	f.now = closing
	_, err = f.svc.Vote(ctx, p.ID, p.Options[0].ID, asUser("u1"))
	assert.ErrorIs(t, err, poll.ErrPollClosed)
	_, err = f.svc.AddUserOption(ctx, p.ID, asUser("u2"), services.OptionInput{Text: "D"})
	assert.ErrorIs(t, err, poll.ErrPollClosed)
}

func TestVote_AnonymousDedup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{
		Question:           "Q",
		Options:            textOptions("A", "B"),
		AnonymousResponses: true,
	})
	require.NoError(t, err)
	a, b := p.Options[0].ID, p.Options[1].ID

	_, err = f.svc.Vote(ctx, p.ID, a, anon("s1", "1.2.3.4"))
	require.NoError(t, err)

	_, err = f.svc.Vote(ctx, p.ID, b, anon("s1", "1.2.3.4"))
	assert.ErrorIs(t, err, poll.ErrAlreadyVoted)

	_, err = f.svc.Vote(ctx, p.ID, b, anon("s2", "1.2.3.4"))
	require.NoError(t, err)
	res, err := f.svc.Vote(ctx, p.ID, b, anon("s1", "5.6.7.8"))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{a: 1, b: 2}, res.View.Tally.PerOption)

	_, err = f.svc.Vote(ctx, p.ID, a, anon("", "1.2.3.4"))
	assert.ErrorIs(t, err, poll.ErrIdentityUnavailable)
}

func TestVote_ConcurrentAnonymousAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{
		Question:           "Q",
		Options:            textOptions("A", "B"),
		AnonymousResponses: true,
	})
	require.NoError(t, err)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Vote(ctx, p.ID, p.Options[0].ID, anon("s1", "1.2.3.4"))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, poll.ErrAlreadyVoted)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	tally, err := f.svc.Tally(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, tally.Total)
}

func TestCancelVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{Question: "Q", Options: textOptions("A", "B")})
	require.NoError(t, err)

	_, err = f.svc.CancelVote(ctx, p.ID, asUser("u1"))
	assert.ErrorIs(t, err, poll.ErrNoVoteToCancel)

	_, err = f.svc.Vote(ctx, p.ID, p.Options[0].ID, asUser("u1"))
	require.NoError(t, err)
	view, err := f.svc.CancelVote(ctx, p.ID, asUser("u1"))
	require.NoError(t, err)
	assert.False(t, view.HasVoted)
	assert.EqualValues(t, 0, view.Tally.Total)

	diffs, err := f.svc.VerifyTally(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestVote_LocationRestriction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, user.User{ID: "athens", Location: poll.Location{Country: "GR", City: "Athens"}})
	f.addUser(t, user.User{ID: "lyon", Location: poll.Location{Country: "FR", City: "Lyon"}})
	f.addUser(t, user.User{ID: "nowhere"})

	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{
		Question:           "Q",
		Options:            textOptions("A", "B"),
		AnonymousResponses: true,
		RestrictToLocation: true,
		Location:           poll.Location{Country: "gr"},
	})
	require.NoError(t, err)
	a := p.Options[0].ID

	_, err = f.svc.Vote(ctx, p.ID, a, asUser("athens"))
	require.NoError(t, err)

	for _, req := range []identity.Request{asUser("lyon"), asUser("nowhere"), asUser("ghost"), anon("s1", "1.2.3.4")} {
		_, err = f.svc.Vote(ctx, p.ID, a, req)
		assert.ErrorIs(t, err, poll.ErrLocationRestricted)
	}
}

func TestModeration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, user.User{ID: "admin", Role: user.RoleAdmin})

	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{
		Question:           "Q",
		Options:            textOptions("A", "B"),
		AllowUserOptions:   true,
		UserOptionApproval: poll.ApprovalCreator,
	})
	require.NoError(t, err)

	res, err := f.svc.AddUserOption(ctx, p.ID, asUser("u1"), services.OptionInput{Text: " a "})
	assert.ErrorIs(t, err, poll.ErrDuplicateOptionText)

	res, err = f.svc.AddUserOption(ctx, p.ID, asUser("u1"), services.OptionInput{Text: "C"})
	require.NoError(t, err)
	assert.Equal(t, poll.OptionPending, res.Option.Status)
	assert.Equal(t, "Option submitted for approval", res.Message)
	assert.Len(t, res.View.Poll.Options, 2)
	assert.NotContains(t, res.View.Tally.PerOption, res.Option.ID)

	// A second pending submission with the same text is accepted.
	dup, err := f.svc.AddUserOption(ctx, p.ID, asUser("u2"), services.OptionInput{Text: "c"})
	require.NoError(t, err)

	_, err = f.svc.PendingOptions(ctx, p.ID, "u1")
	assert.ErrorIs(t, err, poll.ErrNotModerator)
	pending, err := f.svc.PendingOptions(ctx, p.ID, "creator")
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = f.svc.ApproveOption(ctx, p.ID, res.Option.ID, "u1")
	assert.ErrorIs(t, err, poll.ErrNotModerator)

	view, err := f.svc.ApproveOption(ctx, p.ID, res.Option.ID, "admin")
	require.NoError(t, err)
	assert.True(t, view.CanModerate)
	assert.Contains(t, view.Tally.PerOption, res.Option.ID)

	_, err = f.svc.ApproveOption(ctx, p.ID, res.Option.ID, "creator")
	assert.ErrorIs(t, err, poll.ErrOptionNotPending)
	_, err = f.svc.ApproveOption(ctx, p.ID, dup.Option.ID, "creator")
	assert.ErrorIs(t, err, poll.ErrDuplicateOptionText)
	_, err = f.svc.ApproveOption(ctx, p.ID, "missing", "creator")
	assert.ErrorIs(t, err, poll.ErrOptionNotFound)

	view, err = f.svc.DeleteOption(ctx, p.ID, dup.Option.ID, "creator")
	require.NoError(t, err)
	assert.Len(t, view.Poll.Options, 3)

	assert.Contains(t, f.publisher.types(), events.TypeOptionApproved)
	assert.Contains(t, f.publisher.types(), events.TypeOptionDeleted)
}

func TestAddUserOption_AutoApprovalAndDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	closed, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{Question: "Q", Options: textOptions("A", "B")})
	require.NoError(t, err)
	_, err = f.svc.AddUserOption(ctx, closed.ID, asUser("u1"), services.OptionInput{Text: "C"})
	assert.ErrorIs(t, err, poll.ErrUserOptionsOff)

	open, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{Question: "Q", Options: textOptions("A", "B"), AllowUserOptions: true})
	require.NoError(t, err)
	res, err := f.svc.AddUserOption(ctx, open.ID, asUser("u1"), services.OptionInput{Text: "C"})
	require.NoError(t, err)
	assert.Equal(t, poll.OptionApproved, res.Option.Status)
	assert.Equal(t, "Option added", res.Message)
	require.NotNil(t, res.Option.CreatedBy)
	assert.Equal(t, "u1", *res.Option.CreatedBy)
	assert.Equal(t, 2, res.Option.Position)

	_, err = f.svc.Vote(ctx, open.ID, res.Option.ID, asUser("u2"))
	require.NoError(t, err)
	assert.Contains(t, f.publisher.types(), events.TypeOptionAdded)
	assert.Contains(t, f.publisher.types(), events.TypeTallyUpdated)
}

func TestDeleteOption_OrphansStopCounting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{Question: "Q", Options: textOptions("A", "B", "C")})
	require.NoError(t, err)
	a, b := p.Options[0].ID, p.Options[1].ID

	_, err = f.svc.Vote(ctx, p.ID, a, asUser("u1"))
	require.NoError(t, err)
	_, err = f.svc.Vote(ctx, p.ID, b, asUser("u2"))
	require.NoError(t, err)

	view, err := f.svc.DeleteOption(ctx, p.ID, a, "creator")
	require.NoError(t, err)
	assert.EqualValues(t, 1, view.Tally.Total)
	assert.NotContains(t, view.Tally.PerOption, a)

	view, err = f.svc.GetPoll(ctx, p.ID, asUser("u1"))
	require.NoError(t, err)
	assert.False(t, view.HasVoted)

	res, err := f.svc.Vote(ctx, p.ID, b, asUser("u1"))
	require.NoError(t, err)
	assert.Equal(t, poll.VoteRecorded, res.Outcome)
	assert.EqualValues(t, 2, res.View.Tally.PerOption[b])
}

func TestUpdateLinkPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{
		Question:         "Who?",
		Options:          []services.OptionInput{{Text: "Alice"}, {Text: "Bob"}},
		OptionsArePeople: true,
		AllowUserOptions: true,
	})
	require.NoError(t, err)
	assert.Equal(t, poll.OptionKindPerson, p.Options[0].Kind)

	_, err = f.svc.UpdateLinkPolicy(ctx, p.ID, "u1", poll.LinkModeAllowlist, []string{"example.com"})
	assert.ErrorIs(t, err, poll.ErrNotModerator)

	policy, err := f.svc.UpdateLinkPolicy(ctx, p.ID, "creator", poll.LinkModeAllowlist, []string{"Example.com", "example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, policy.AllowedDomains)

	_, err = f.svc.AddUserOption(ctx, p.ID, asUser("u1"), services.OptionInput{Text: "Carol", ProfileURL: "https://example.com.evil.net/c"})
	assert.ErrorIs(t, err, poll.ErrDomainNotAllowed)
	_, err = f.svc.AddUserOption(ctx, p.ID, asUser("u1"), services.OptionInput{Text: "Carol", ProfileURL: "http://example.com/c"})
	assert.ErrorIs(t, err, poll.ErrNotHTTPS)

	res, err := f.svc.AddUserOption(ctx, p.ID, asUser("u1"), services.OptionInput{Text: "Carol", ProfileURL: "https://sub.example.com/c"})
	require.NoError(t, err)
	person, ok := res.Option.AsPerson()
	require.True(t, ok)
	assert.Equal(t, "https://sub.example.com/c", person.ProfileURL)
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, user.User{ID: "u1", DisplayName: "Eleni", Gender: "female"})
	f.addUser(t, user.User{ID: "u2", DisplayName: "Nikos", Gender: "male"})
	f.addUser(t, user.User{ID: "u3", DisplayName: "Sam"})

	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{Question: "Q", Options: textOptions("A", "B")})
	require.NoError(t, err)
	a, b := p.Options[0].ID, p.Options[1].ID
	for id, option := range map[string]string{"u1": a, "u2": a, "u3": b} {
		_, err := f.svc.Vote(ctx, p.ID, option, asUser(id))
		require.NoError(t, err)
	}

	public, err := f.svc.Statistics(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, public.TotalVotes)
	assert.Equal(t, poll.BreakdownAvailable, public.Breakdown)
	assert.EqualValues(t, 1, public.ByGender["female"][a])
	assert.EqualValues(t, 1, public.ByGender["unspecified"][b])
	assert.Empty(t, public.ByUser)

	moderator, err := f.svc.Statistics(ctx, p.ID, "creator")
	require.NoError(t, err)
	assert.Len(t, moderator.ByUser, 3)

	anonPoll, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{
		Question:           "Q",
		Options:            textOptions("A", "B"),
		AnonymousResponses: true,
	})
	require.NoError(t, err)
	_, err = f.svc.Vote(ctx, anonPoll.ID, anonPoll.Options[0].ID, asUser("u1"))
	require.NoError(t, err)

	stats, err := f.svc.Statistics(ctx, anonPoll.ID, "creator")
	require.NoError(t, err)
	assert.Equal(t, poll.BreakdownInsufficientData, stats.Breakdown)
	assert.EqualValues(t, 1, stats.TotalVotes)
	assert.Nil(t, stats.ByGender)
	assert.Nil(t, stats.ByUser)
}

func TestReconcileTally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{Question: "Q", Options: textOptions("A", "B")})
	require.NoError(t, err)
	a := p.Options[0].ID
	_, err = f.svc.Vote(ctx, p.ID, a, asUser("u1"))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&poll.Option{}).Where("id = ?", a).Update("votes", 7).Error)

	diffs, err := f.svc.VerifyTally(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, poll.Discrepancy{OptionID: a, Cached: 7, Ledger: 1}, diffs[0])

	fixed, err := f.svc.ReconcileTally(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, fixed, 1)

	diffs, err = f.svc.VerifyTally(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestGreekReferendumScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreatePoll(ctx, "creator", services.CreatePollInput{
		Question:           "Δημοψήφισμα",
		Options:            textOptions("Ναι", "Όχι"),
		AllowUserOptions:   true,
		UserOptionApproval: poll.ApprovalCreator,
		AnonymousResponses: true,
	})
	require.NoError(t, err)
	yes := optionByText(t, p.Options, "Ναι")
	no := optionByText(t, p.Options, "Όχι")

	added, err := f.svc.AddUserOption(ctx, p.ID, asUser("citizen"), services.OptionInput{Text: "Ίσως"})
	require.NoError(t, err)
	assert.Equal(t, poll.OptionPending, added.Option.Status)
	assert.Len(t, added.View.Tally.PerOption, 2)
	assert.EqualValues(t, 0, added.View.Tally.Total)

	view, err := f.svc.ApproveOption(ctx, p.ID, added.Option.ID, "creator")
	require.NoError(t, err)
	assert.Equal(t, poll.OptionApproved, optionByText(t, view.Poll.Options, "Ίσως").Status)

	res, err := f.svc.Vote(ctx, p.ID, added.Option.ID, anon("s1", "1.2.3.4"))
	require.NoError(t, err)
	want := map[string]int64{yes.ID: 0, no.ID: 0, added.Option.ID: 1}
	assert.Equal(t, want, res.View.Tally.PerOption)
	assert.EqualValues(t, 1, res.View.Tally.Total)

	_, err = f.svc.Vote(ctx, p.ID, added.Option.ID, anon("s1", "1.2.3.4"))
	assert.ErrorIs(t, err, poll.ErrAlreadyVoted)

	tally, err := f.svc.Tally(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, want, tally.PerOption)
	assert.EqualValues(t, 1, tally.Total)
}
