package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordduel/internal/dependencies/mocks"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/services/dictionary"
	"github.com/mcoot/wordduel/internal/services/validation"
	"github.com/mcoot/wordduel/internal/testutil"
)

const (
	alice model.ConnID = "conn-alice"
	bob   model.ConnID = "conn-bob"
	carol model.ConnID = "conn-carol"
)

var testWords = []string{"cat", "coat", "cart", "cast", "colt", "dog", "bat", "tab"}

// sentEvent is one notification captured by recordingNotifier.
// Exactly one of Room and Conn is set.
type sentEvent struct {
	Room    model.RoomCode
	Conn    model.ConnID
	Event   model.EventType
	Payload any
}

type recordingNotifier struct {
	mu            sync.Mutex
	events        []sentEvent
	subscriptions map[model.ConnID]model.RoomCode
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{subscriptions: make(map[model.ConnID]model.RoomCode)}
}

func (n *recordingNotifier) Notify(code model.RoomCode, event model.EventType, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{Room: code, Event: event, Payload: payload})
}

func (n *recordingNotifier) NotifyOne(conn model.ConnID, event model.EventType, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{Conn: conn, Event: event, Payload: payload})
}

func (n *recordingNotifier) Subscribe(conn model.ConnID, code model.RoomCode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscriptions[conn] = code
}

func (n *recordingNotifier) Unsubscribe(code model.RoomCode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for conn, c := range n.subscriptions {
		if c == code {
			delete(n.subscriptions, conn)
		}
	}
}

func (n *recordingNotifier) all() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentEvent, len(n.events))
	copy(out, n.events)
	return out
}

func (n *recordingNotifier) ofType(event model.EventType) []sentEvent {
	var out []sentEvent
	for _, ev := range n.all() {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

func (n *recordingNotifier) subscribed(conn model.ConnID) (model.RoomCode, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	code, ok := n.subscriptions[conn]
	return code, ok
}

type auditSpy struct {
	mu          sync.Mutex
	joins       []model.PlayerJoinRecord
	starts      []model.GameStartRecord
	rounds      []model.RoundRecord
	completions []model.GameCompletionRecord
}

func (a *auditSpy) PlayerJoined(rec model.PlayerJoinRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.joins = append(a.joins, rec)
}

func (a *auditSpy) GameStarted(rec model.GameStartRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.starts = append(a.starts, rec)
}

func (a *auditSpy) RoundCompleted(rec model.RoundRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rounds = append(a.rounds, rec)
}

func (a *auditSpy) GameCompleted(rec model.GameCompletionRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.completions = append(a.completions, rec)
}

type EngineSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	notifier *recordingNotifier
	audit    *auditSpy
	engine   *Engine
	ctx      context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	dict := dictionary.New(testutil.NopLogger())
	s.Require().NoError(dict.LoadWords(testWords))

	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.notifier = newRecordingNotifier()
	s.audit = &auditSpy{}
	s.engine = NewEngine(
		validation.New(dict),
		s.notifier,
		s.audit,
		model.DefaultGameConfig(),
		s.clock,
		s.random,
		testutil.NopLogger(),
	)
	s.ctx = context.Background()
}

// Helpers

func (s *EngineSuite) createAndJoin(mode model.GameMode, roundsToWin int) model.RoomCode {
	code, err := s.engine.CreateGame(s.ctx, alice, model.CreateGameIntent{
		PlayerName:  "Alice",
		RoundsToWin: roundsToWin,
		LetterTime:  5,
		WordTime:    30,
		Mode:        mode,
	})
	s.Require().NoError(err)

	err = s.engine.JoinGame(s.ctx, bob, model.JoinGameIntent{RoomCode: code, PlayerName: "Bob"})
	s.Require().NoError(err)
	return code
}

// startPlaying creates a full room, starts it and waits for round one.
// With the default coin flip Alice picks the start letter and Bob the end letter.
func (s *EngineSuite) startPlaying(mode model.GameMode, roundsToWin int) model.RoomCode {
	code := s.createAndJoin(mode, roundsToWin)
	s.Require().NoError(s.engine.StartGame(s.ctx, alice))
	s.clock.Advance(StartDelay)
	return code
}

func (s *EngineSuite) submitLetters(start, end string) {
	s.Require().NoError(s.engine.SubmitLetter(s.ctx, alice, start))
	s.Require().NoError(s.engine.SubmitLetter(s.ctx, bob, end))
}

func (s *EngineSuite) session(code model.RoomCode) *model.Session {
	r, ok := s.engine.rooms.Get(code)
	s.Require().True(ok)
	return r.session
}

func (s *EngineSuite) lastRoundEnded() model.RoundEndedPayload {
	events := s.notifier.ofType(model.EventRoundEnded)
	s.Require().NotEmpty(events)
	return events[len(events)-1].Payload.(model.RoundEndedPayload)
}

func (s *EngineSuite) eventNames() []model.EventType {
	var names []model.EventType
	for _, ev := range s.notifier.all() {
		names = append(names, ev.Event)
	}
	return names
}

// Room lifecycle tests

func (s *EngineSuite) TestCreateGame() {
	s.random.QueueString("ABC234")

	code, err := s.engine.CreateGame(s.ctx, alice, model.CreateGameIntent{PlayerName: "Alice", Mode: model.ModeBattleRoyale})
	s.Require().NoError(err)
	s.Equal(model.RoomCode("ABC234"), code)

	created := s.notifier.ofType(model.EventGameCreated)
	s.Require().Len(created, 1)
	s.Equal(alice, created[0].Conn)

	payload := created[0].Payload.(model.GameCreatedPayload)
	s.Equal(code, payload.GameID)
	s.Equal(model.ModeBattleRoyale, payload.Game.Mode)
	s.Equal(model.StatusWaiting, payload.Game.Status)
	s.Equal(string(alice), payload.Game.Creator)

	subscribed, ok := s.notifier.subscribed(alice)
	s.True(ok)
	s.Equal(code, subscribed)

	s.Require().Len(s.audit.joins, 1)
	s.True(s.audit.joins[0].IsCreator)
}

func (s *EngineSuite) TestCreateGameUsesDefaults() {
	code, err := s.engine.CreateGame(s.ctx, alice, model.CreateGameIntent{PlayerName: "  "})
	s.Require().NoError(err)

	snap, err := s.engine.Snapshot(code)
	s.Require().NoError(err)
	s.Equal(5, snap.RoundsToWin)
	s.Equal(5, snap.LetterTime)
	s.Equal(30, snap.WordTime)
	s.Equal(model.ModeNormal, snap.Mode)
	s.Equal("Player", snap.Players[0].Name)
}

func (s *EngineSuite) TestCreateGameTwiceFromSameConnection() {
	s.random.QueueString("AAAAAA", "BBBBBB")
	_, err := s.engine.CreateGame(s.ctx, alice, model.CreateGameIntent{PlayerName: "Alice"})
	s.Require().NoError(err)

	_, err = s.engine.CreateGame(s.ctx, alice, model.CreateGameIntent{PlayerName: "Alice"})
	s.ErrorIs(err, model.ErrAlreadyInRoom)
}

func (s *EngineSuite) TestJoinGame() {
	code := s.createAndJoin(model.ModeNormal, 3)

	joined := s.notifier.ofType(model.EventPlayerJoined)
	s.Require().Len(joined, 1)
	s.Equal(code, joined[0].Room)
	s.Len(joined[0].Payload.(model.RoomUpdatePayload).Game.Players, 2)

	subscribed, ok := s.notifier.subscribed(bob)
	s.True(ok)
	s.Equal(code, subscribed)
	s.Len(s.audit.joins, 2)
}

func (s *EngineSuite) TestJoinGameNormalizesCode() {
	s.random.QueueString("ABC234")
	_, _ = s.engine.CreateGame(s.ctx, alice, model.CreateGameIntent{PlayerName: "Alice"})

	err := s.engine.JoinGame(s.ctx, bob, model.JoinGameIntent{RoomCode: " abc234 ", PlayerName: "Bob"})
	s.NoError(err)
}

func (s *EngineSuite) TestJoinGameErrors() {
	err := s.engine.JoinGame(s.ctx, bob, model.JoinGameIntent{RoomCode: "NOPE00", PlayerName: "Bob"})
	s.ErrorIs(err, model.ErrRoomNotFound)

	code := s.createAndJoin(model.ModeNormal, 3)
	err = s.engine.JoinGame(s.ctx, carol, model.JoinGameIntent{RoomCode: code, PlayerName: "Carol"})
	s.ErrorIs(err, model.ErrRoomFull)
}

func (s *EngineSuite) TestStartGame() {
	code := s.createAndJoin(model.ModeNormal, 3)

	s.Require().NoError(s.engine.StartGame(s.ctx, alice))

	s.Len(s.notifier.ofType(model.EventGameStarted), 1)
	s.Equal(model.StatusPlaying, s.session(code).Status)
	s.Empty(s.notifier.ofType(model.EventRoundStarted), "first round waits for the start delay")
	s.Require().Len(s.audit.starts, 1)
	s.Equal([]string{"Alice", "Bob"}, s.audit.starts[0].Players)

	s.clock.Advance(StartDelay)

	started := s.notifier.ofType(model.EventRoundStarted)
	s.Require().Len(started, 2)
	s.Equal(alice, started[0].Conn)
	s.Equal(model.RoleStart, started[0].Payload.(model.RoundStartedPayload).Role)
	s.Equal(bob, started[1].Conn)
	s.Equal(model.RoleEnd, started[1].Payload.(model.RoundStartedPayload).Role)
	s.Equal(1, s.session(code).RoundCounter)
}

func (s *EngineSuite) TestCoinFlipSwapsRoles() {
	s.random.QueueCoinFlips(true)
	code := s.startPlaying(model.ModeNormal, 3)

	round := s.session(code).CurrentRound
	s.Equal(bob, round.StartPlayerID)
	s.Equal(alice, round.EndPlayerID)
}

func (s *EngineSuite) TestStartGameRequiresCreator() {
	s.createAndJoin(model.ModeNormal, 3)
	s.ErrorIs(s.engine.StartGame(s.ctx, bob), model.ErrNotCreator)
}

func (s *EngineSuite) TestStartGameRequiresTwoPlayers() {
	_, _ = s.engine.CreateGame(s.ctx, alice, model.CreateGameIntent{PlayerName: "Alice"})
	s.ErrorIs(s.engine.StartGame(s.ctx, alice), model.ErrCannotStart)
}

func (s *EngineSuite) TestStartGameTwice() {
	s.createAndJoin(model.ModeNormal, 3)
	s.Require().NoError(s.engine.StartGame(s.ctx, alice))
	s.ErrorIs(s.engine.StartGame(s.ctx, alice), model.ErrCannotStart)
}

func (s *EngineSuite) TestJoinAfterRoomRemoved() {
	code := s.createAndJoin(model.ModeNormal, 3)
	s.Require().NoError(s.engine.StartGame(s.ctx, alice))
	s.Require().NoError(s.engine.LeaveLobby(s.ctx, bob))

	// Room is gone once a player leaves
	err := s.engine.JoinGame(s.ctx, carol, model.JoinGameIntent{RoomCode: code, PlayerName: "Carol"})
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *EngineSuite) TestActionsOutsideRoom() {
	s.ErrorIs(s.engine.StartGame(s.ctx, carol), model.ErrNotInRoom)
	s.ErrorIs(s.engine.SubmitLetter(s.ctx, carol, "A"), model.ErrNotInRoom)
	s.ErrorIs(s.engine.SubmitWord(s.ctx, carol, "cat"), model.ErrNotInRoom)
	s.ErrorIs(s.engine.SkipRound(s.ctx, carol), model.ErrNotInRoom)
	s.ErrorIs(s.engine.StartNextRound(s.ctx, carol), model.ErrNotInRoom)
	s.ErrorIs(s.engine.LeaveLobby(s.ctx, carol), model.ErrNotInRoom)
	s.ErrorIs(s.engine.ExitGame(s.ctx, carol), model.ErrNotInRoom)
	s.NotPanics(func() { s.engine.Disconnect(s.ctx, carol) })
}

// Letter selection tests

func (s *EngineSuite) TestLettersRevealedWhenBothSubmitted() {
	code := s.startPlaying(model.ModeNormal, 3)

	s.Require().NoError(s.engine.SubmitLetter(s.ctx, alice, "c"))
	s.Empty(s.notifier.ofType(model.EventLettersRevealed))

	s.Require().NoError(s.engine.SubmitLetter(s.ctx, bob, "T"))

	revealed := s.notifier.ofType(model.EventLettersRevealed)
	s.Require().Len(revealed, 1)
	s.Equal(code, revealed[0].Room)
	s.Equal(model.LetterPairPayload{StartLetter: "C", EndLetter: "T"}, revealed[0].Payload)
	s.Equal(model.PhaseWordInput, s.session(code).CurrentRound.Phase)
}

func (s *EngineSuite) TestFirstLetterWins() {
	code := s.startPlaying(model.ModeNormal, 3)

	s.Require().NoError(s.engine.SubmitLetter(s.ctx, alice, "C"))
	s.Require().NoError(s.engine.SubmitLetter(s.ctx, alice, "X"))

	s.Equal('C', s.session(code).CurrentRound.StartLetter)
}

func (s *EngineSuite) TestInvalidLetter() {
	s.startPlaying(model.ModeNormal, 3)

	s.ErrorIs(s.engine.SubmitLetter(s.ctx, alice, "7"), model.ErrInvalidLetter)
	s.ErrorIs(s.engine.SubmitLetter(s.ctx, alice, "ab"), model.ErrInvalidLetter)
	s.ErrorIs(s.engine.SubmitLetter(s.ctx, alice, ""), model.ErrInvalidLetter)
}

func (s *EngineSuite) TestLetterTimeoutAssignsMissingLetters() {
	code := s.startPlaying(model.ModeNormal, 3)
	s.random.QueueLetters('T')

	s.Require().NoError(s.engine.SubmitLetter(s.ctx, alice, "C"))
	s.clock.Advance(5*time.Second + NetworkBuffer)

	revealed := s.notifier.ofType(model.EventLettersRevealed)
	s.Require().Len(revealed, 1)
	s.Equal(model.LetterPairPayload{StartLetter: "C", EndLetter: "T"}, revealed[0].Payload)
	s.Equal(model.PhaseWordInput, s.session(code).CurrentRound.Phase)
}

func (s *EngineSuite) TestLetterTimerCancelledOnceBothSubmitted() {
	s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")

	// The letter timer would have fired here; only the word timer remains
	s.clock.Advance(5*time.Second + NetworkBuffer)
	s.Len(s.notifier.ofType(model.EventLettersRevealed), 1)
	s.Empty(s.notifier.ofType(model.EventRoundEnded))
}

func (s *EngineSuite) TestLettersIgnoredOutsideLetterInput() {
	code := s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")

	s.NoError(s.engine.SubmitLetter(s.ctx, alice, "D"))
	s.Equal('C', s.session(code).CurrentRound.StartLetter)
}

func (s *EngineSuite) TestDeadPairRetriesWithSameRoles() {
	// Scenario: no dictionary word starts with A and ends with Q
	code := s.startPlaying(model.ModeNormal, 3)
	round := s.session(code).CurrentRound
	s.notifier.reset()

	s.submitLetters("A", "Q")

	dead := s.notifier.ofType(model.EventNoValidWords)
	s.Require().Len(dead, 1)
	s.Equal(model.LetterPairPayload{StartLetter: "A", EndLetter: "Q"}, dead[0].Payload)
	s.Empty(s.notifier.ofType(model.EventLettersRevealed))
	s.Empty(s.notifier.ofType(model.EventRoundStarted))

	s.clock.Advance(RetryDelay)

	restarted := s.notifier.ofType(model.EventRoundStarted)
	s.Require().Len(restarted, 2)
	s.Equal(alice, restarted[0].Conn)
	s.Equal(model.RoleStart, restarted[0].Payload.(model.RoundStartedPayload).Role)
	s.Equal(bob, restarted[1].Conn)
	s.Equal(model.RoleEnd, restarted[1].Payload.(model.RoundStartedPayload).Role)

	sess := s.session(code)
	s.Equal(1, sess.RoundCounter)
	s.Same(round, sess.CurrentRound)
	s.Equal(rune(0), sess.CurrentRound.StartLetter)

	s.submitLetters("C", "T")
	s.Len(s.notifier.ofType(model.EventLettersRevealed), 1)
}

func (s *EngineSuite) TestLettersIgnoredDuringRetryDelay() {
	code := s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("A", "Q")

	s.NoError(s.engine.SubmitLetter(s.ctx, alice, "C"))
	s.Len(s.notifier.ofType(model.EventNoValidWords), 1)
	s.Equal('A', s.session(code).CurrentRound.StartLetter)
}

func (s *EngineSuite) TestPairWithOnlyUsedWordsIsDead() {
	code := s.startPlaying(model.ModeNormal, 5)
	sess := s.session(code)
	for _, w := range []string{"cat", "coat", "cart", "cast", "colt"} {
		sess.UsedWords[w] = struct{}{}
	}

	s.submitLetters("C", "T")
	s.Len(s.notifier.ofType(model.EventNoValidWords), 1)
}

func (s *EngineSuite) TestRetryCapEndsRoundAsDraw() {
	code := s.startPlaying(model.ModeNormal, 3)

	// Letter timeouts assign A/A every attempt, which has no words
	perAttempt := 5*time.Second + NetworkBuffer + RetryDelay
	s.clock.Advance(time.Duration(MaxPairRetries) * perAttempt)

	s.Len(s.notifier.ofType(model.EventNoValidWords), MaxPairRetries)
	ended := s.notifier.ofType(model.EventRoundEnded)
	s.Require().Len(ended, 1)

	payload := ended[0].Payload.(model.RoundEndedPayload)
	s.Nil(payload.Winner)
	s.Equal(noPairsReason, payload.WinningReason)
	s.Equal(1, s.session(code).RoundCounter)
	s.Equal(0, s.clock.PendingTimers())
}

// Normal mode tests

func (s *EngineSuite) TestFirstValidWordWins() {
	code := s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")

	s.Require().NoError(s.engine.SubmitWord(s.ctx, bob, " CAT "))

	payload := s.lastRoundEnded()
	s.Require().NotNil(payload.Winner)
	s.Equal("Bob", *payload.Winner)
	s.Require().NotNil(payload.Word)
	s.Equal("cat", *payload.Word)
	s.Equal([]model.PlayerScore{{Name: "Alice", Score: 0}, {Name: "Bob", Score: 1}}, payload.Scores)
	s.Nil(payload.RoundWords)

	sess := s.session(code)
	s.True(sess.IsWordUsed("cat"))
	s.Equal(model.PhaseEnded, sess.CurrentRound.Phase)
	s.Equal(0, s.clock.PendingTimers())

	// The loser's late word does nothing
	s.NoError(s.engine.SubmitWord(s.ctx, alice, "coat"))
	s.Len(s.notifier.ofType(model.EventRoundEnded), 1)
	s.False(sess.IsWordUsed("coat"))
}

func (s *EngineSuite) TestInvalidWordGoesOnlyToSubmitter() {
	s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")

	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "dog"))

	invalid := s.notifier.ofType(model.EventInvalidWord)
	s.Require().Len(invalid, 1)
	s.Equal(alice, invalid[0].Conn)
	s.Empty(invalid[0].Room)
	s.Equal(model.InvalidWordPayload{Reason: "Must start with 'C'"}, invalid[0].Payload)
	s.Empty(s.notifier.ofType(model.EventRoundEnded))

	// Retry is allowed
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))
	s.Equal("Alice", *s.lastRoundEnded().Winner)
}

func (s *EngineSuite) TestUsedWordRejectedInLaterRound() {
	s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))
	s.Require().NoError(s.engine.StartNextRound(s.ctx, alice))
	s.submitLetters("C", "T")

	s.Require().NoError(s.engine.SubmitWord(s.ctx, bob, "cat"))

	invalid := s.notifier.ofType(model.EventInvalidWord)
	s.Require().Len(invalid, 1)
	s.Equal(model.InvalidWordPayload{Reason: "Word already used"}, invalid[0].Payload)
}

func (s *EngineSuite) TestWordTimeoutIsDraw() {
	// Scenario: nobody submits before the word timer runs out
	code := s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")

	s.clock.Advance(30*time.Second + NetworkBuffer + RevealDelay - time.Millisecond)
	s.Empty(s.notifier.ofType(model.EventRoundEnded))

	s.clock.Advance(time.Millisecond)

	payload := s.lastRoundEnded()
	s.Nil(payload.Winner)
	s.Nil(payload.Word)
	s.Equal([]model.PlayerScore{{Name: "Alice", Score: 0}, {Name: "Bob", Score: 0}}, payload.Scores)
	s.Equal(model.StatusPlaying, s.session(code).Status)
}

func (s *EngineSuite) TestBothSkipIsDraw() {
	s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")

	s.Require().NoError(s.engine.SkipRound(s.ctx, alice))
	s.Require().NoError(s.engine.SkipRound(s.ctx, alice))
	s.Empty(s.notifier.ofType(model.EventRoundEnded))

	s.Require().NoError(s.engine.SkipRound(s.ctx, bob))

	payload := s.lastRoundEnded()
	s.Nil(payload.Winner)
	s.Equal("Both players skipped", payload.WinningReason)
}

func (s *EngineSuite) TestSkipDuringLetterInputIgnored() {
	code := s.startPlaying(model.ModeNormal, 3)
	s.NoError(s.engine.SkipRound(s.ctx, alice))
	s.Empty(s.session(code).CurrentRound.Skipped)
}

func (s *EngineSuite) TestEndRoundLatch() {
	code := s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")
	r, _ := s.engine.rooms.Get(code)

	r.mu.Lock()
	first := s.engine.endRound(r, alice, "cat", "")
	second := s.engine.endRound(r, alice, "cat", "")
	r.mu.Unlock()

	s.True(first)
	s.False(second)
	s.Len(s.notifier.ofType(model.EventRoundEnded), 1)
	s.Equal(1, s.session(code).GetPlayer(alice).Score)
	s.Len(s.audit.rounds, 1)
}

func (s *EngineSuite) TestWinningWordBeatsPendingTimeout() {
	s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))

	s.clock.Advance(time.Minute)

	s.Len(s.notifier.ofType(model.EventRoundEnded), 1)
	s.Equal("Alice", *s.lastRoundEnded().Winner)
}

func (s *EngineSuite) TestRearmingReplacesPendingTimer() {
	code := s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")
	r, _ := s.engine.rooms.Get(code)

	r.mu.Lock()
	staleSeq := r.timerSeq
	s.engine.armWordTimer(r, 0)
	r.mu.Unlock()

	s.NotEqual(staleSeq, r.timerSeq)
	s.Equal(1, s.clock.PendingTimers())

	s.clock.Advance(time.Minute)
	s.Len(s.notifier.ofType(model.EventRoundEnded), 1)
}

func (s *EngineSuite) TestTimerFiringAfterCancelIsIgnored() {
	code := s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")
	r, _ := s.engine.rooms.Get(code)

	// A callback that was already running when its timer got replaced
	fired := false
	r.mu.Lock()
	s.engine.schedule(r, time.Second, func() { fired = true })
	seq := r.timerSeq
	r.timerSeq++
	r.mu.Unlock()

	s.clock.Advance(time.Second)
	s.False(fired)
	s.NotEqual(seq, r.timerSeq)
}

// Battle-royale tests

func (s *EngineSuite) TestBattleRoyaleTurnOrder() {
	code := s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")

	turns := s.notifier.ofType(model.EventTurnUpdate)
	s.Require().Len(turns, 1)
	first := turns[0].Payload.(model.TurnUpdatePayload)
	s.Equal("Alice", first.CurrentTurn)
	s.Equal(string(alice), first.CurrentTurnID)
	s.Empty(first.RoundWords)

	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))

	accepted := s.notifier.ofType(model.EventWordAccepted)
	s.Require().Len(accepted, 1)
	acc := accepted[0].Payload.(model.WordAcceptedPayload)
	s.Equal("cat", acc.Word)
	s.Equal("Alice", acc.Player)
	s.Equal([]model.WordEntry{{PlayerID: alice, Player: "Alice", Word: "cat"}}, acc.RoundWords)

	turns = s.notifier.ofType(model.EventTurnUpdate)
	s.Require().Len(turns, 2)
	s.Equal(string(bob), turns[1].Payload.(model.TurnUpdatePayload).CurrentTurnID)

	sess := s.session(code)
	s.Equal(bob, sess.CurrentRound.CurrentTurnID)
	s.True(sess.IsWordUsed("cat"))
	s.Empty(s.notifier.ofType(model.EventRoundEnded))
}

func (s *EngineSuite) TestBattleRoyaleOutOfTurnRejected() {
	code := s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")
	before := len(s.notifier.all())

	s.ErrorIs(s.engine.SubmitWord(s.ctx, bob, "cat"), model.ErrNotYourTurn)
	s.ErrorIs(s.engine.SkipRound(s.ctx, bob), model.ErrNotYourTurn)

	s.Len(s.notifier.all(), before)
	sess := s.session(code)
	s.False(sess.IsWordUsed("cat"))
	s.Equal(alice, sess.CurrentRound.CurrentTurnID)
	s.Empty(sess.CurrentRound.WordsLog)
}

func (s *EngineSuite) TestBattleRoyaleTimeoutLosesRound() {
	// Scenario: Alice plays CAT, Bob runs out of time
	s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))

	// Turn timers have no reveal delay
	s.clock.Advance(30*time.Second + NetworkBuffer)

	payload := s.lastRoundEnded()
	s.Require().NotNil(payload.Winner)
	s.Equal("Alice", *payload.Winner)
	s.Nil(payload.Word)
	s.Equal("Bob ran out of time", payload.WinningReason)
	s.Equal([]model.WordEntry{{PlayerID: alice, Player: "Alice", Word: "cat"}}, payload.RoundWords)
	s.Equal([]model.PlayerScore{{Name: "Alice", Score: 1}, {Name: "Bob", Score: 0}}, payload.Scores)
}

func (s *EngineSuite) TestBattleRoyaleTurnTimerRearmed() {
	s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")

	s.clock.Advance(20 * time.Second)
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))

	// Alice's original deadline passes without ending Bob's fresh turn
	s.clock.Advance(20 * time.Second)
	s.Empty(s.notifier.ofType(model.EventRoundEnded))

	s.clock.Advance(11 * time.Second)
	s.Equal("Bob ran out of time", s.lastRoundEnded().WinningReason)
}

func (s *EngineSuite) TestBattleRoyaleFirstTurnTimeout() {
	s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")

	s.clock.Advance(30*time.Second + NetworkBuffer + RevealDelay)

	payload := s.lastRoundEnded()
	s.Equal("Bob", *payload.Winner)
	s.Equal("Alice ran out of time", payload.WinningReason)
	s.Empty(payload.RoundWords)
}

func (s *EngineSuite) TestBattleRoyaleSkipLosesRound() {
	s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))

	s.Require().NoError(s.engine.SkipRound(s.ctx, bob))

	payload := s.lastRoundEnded()
	s.Equal("Alice", *payload.Winner)
	s.Equal("Bob skipped their turn", payload.WinningReason)
}

func (s *EngineSuite) TestBattleRoyaleInvalidWordKeepsTurn() {
	code := s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")

	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "dog"))

	s.Len(s.notifier.ofType(model.EventInvalidWord), 1)
	s.Equal(alice, s.session(code).CurrentRound.CurrentTurnID)
}

func (s *EngineSuite) TestBattleRoyaleWordsCannotRepeatWithinRound() {
	s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))

	s.Require().NoError(s.engine.SubmitWord(s.ctx, bob, "cat"))

	invalid := s.notifier.ofType(model.EventInvalidWord)
	s.Require().Len(invalid, 1)
	s.Equal(bob, invalid[0].Conn)
	s.Equal(model.InvalidWordPayload{Reason: "Word already used"}, invalid[0].Payload)
}

func (s *EngineSuite) TestBattleRoyaleCombinationUsed() {
	code := s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SkipRound(s.ctx, alice))
	s.Require().NoError(s.engine.StartNextRound(s.ctx, alice))

	s.submitLetters("C", "T")

	used := s.notifier.ofType(model.EventCombinationUsed)
	s.Require().Len(used, 1)
	s.Equal(model.LetterPairPayload{StartLetter: "C", EndLetter: "T"}, used[0].Payload)
	s.Len(s.notifier.ofType(model.EventLettersRevealed), 1)
	s.Empty(s.notifier.ofType(model.EventNoValidWords))

	s.clock.Advance(RetryDelay)
	s.submitLetters("B", "T")

	s.Len(s.notifier.ofType(model.EventLettersRevealed), 2)
	s.Equal(2, s.session(code).RoundCounter)
	s.True(s.session(code).IsPairUsed(model.LetterPair{Start: 'B', End: 'T'}))
}

func (s *EngineSuite) TestNormalModeAllowsRepeatedPairs() {
	s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))
	s.Require().NoError(s.engine.StartNextRound(s.ctx, alice))

	s.submitLetters("C", "T")

	s.Empty(s.notifier.ofType(model.EventCombinationUsed))
	s.Len(s.notifier.ofType(model.EventLettersRevealed), 2)
}

// Game lifecycle tests

func (s *EngineSuite) TestPlayerWinsGame() {
	// Scenario: Alice wins three rounds in a row
	code := s.startPlaying(model.ModeNormal, 3)

	for i, word := range []string{"cat", "coat", "cart"} {
		if i > 0 {
			s.Require().NoError(s.engine.StartNextRound(s.ctx, alice))
		}
		s.submitLetters("C", "T")
		s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, word))
	}

	sess := s.session(code)
	s.Equal(model.StatusFinished, sess.Status)
	s.Equal(3, sess.RoundCounter)
	s.Empty(s.notifier.ofType(model.EventGameEnded), "game-ended waits for the delay")

	s.clock.Advance(GameEndedDelay)

	ended := s.notifier.ofType(model.EventGameEnded)
	s.Require().Len(ended, 1)
	s.Equal(code, ended[0].Room)
	s.Equal(model.GameEndedPayload{
		Winner: "Alice",
		Scores: []model.PlayerScore{{Name: "Alice", Score: 3}, {Name: "Bob", Score: 0}},
	}, ended[0].Payload)

	s.Require().Len(s.audit.completions, 1)
	s.Equal(model.OutcomeCompleted, s.audit.completions[0].Outcome)
	s.Equal("Alice", s.audit.completions[0].Winner)
	s.Equal(3, s.audit.completions[0].TotalRounds)
	s.Len(s.audit.rounds, 3)

	s.ErrorIs(s.engine.StartNextRound(s.ctx, alice), model.ErrNotPlaying)
}

func (s *EngineSuite) TestNoAutomaticNextRound() {
	code := s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))

	s.clock.Advance(time.Hour)

	s.Equal(1, s.session(code).RoundCounter)
	s.Len(s.notifier.ofType(model.EventRoundStarted), 2)
}

func (s *EngineSuite) TestStartNextRoundRules() {
	code := s.startPlaying(model.ModeNormal, 3)

	s.ErrorIs(s.engine.StartNextRound(s.ctx, alice), model.ErrWrongPhase, "letter input")
	s.submitLetters("C", "T")
	s.ErrorIs(s.engine.StartNextRound(s.ctx, alice), model.ErrWrongPhase, "word input")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))

	s.ErrorIs(s.engine.StartNextRound(s.ctx, bob), model.ErrNotCreator)
	s.Require().NoError(s.engine.StartNextRound(s.ctx, alice))

	sess := s.session(code)
	s.Equal(2, sess.RoundCounter)
	s.Equal(model.PhaseLetterInput, sess.CurrentRound.Phase)
}

func (s *EngineSuite) TestStartNextRoundBeforeFirstRound() {
	s.createAndJoin(model.ModeNormal, 3)
	s.Require().NoError(s.engine.StartGame(s.ctx, alice))
	s.ErrorIs(s.engine.StartNextRound(s.ctx, alice), model.ErrWrongPhase)
}

func (s *EngineSuite) TestEventOrderWithinRound() {
	s.startPlaying(model.ModeBattleRoyale, 3)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))
	s.Require().NoError(s.engine.SkipRound(s.ctx, bob))

	s.Equal([]model.EventType{
		model.EventPlayerJoined,
		model.EventGameStarted,
		model.EventRoundStarted,
		model.EventRoundStarted,
		model.EventLettersRevealed,
		model.EventTurnUpdate,
		model.EventWordAccepted,
		model.EventTurnUpdate,
		model.EventRoundEnded,
	}, s.eventNames()[1:])
}

// Teardown tests

func (s *EngineSuite) TestLeaveLobby() {
	code := s.createAndJoin(model.ModeNormal, 3)

	s.Require().NoError(s.engine.LeaveLobby(s.ctx, bob))

	left := s.notifier.ofType(model.EventPlayerLeftLobby)
	s.Require().Len(left, 1)
	s.Equal(code, left[0].Room)
	s.Equal(model.MessagePayload{Message: "Bob has left the lobby."}, left[0].Payload)

	s.Equal(0, s.engine.RoomCount())
	_, err := s.engine.Snapshot(code)
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, ok := s.notifier.subscribed(alice)
	s.False(ok)
	s.ErrorIs(s.engine.StartGame(s.ctx, alice), model.ErrNotInRoom)
	s.Empty(s.audit.completions, "a game that never started is not recorded")
}

func (s *EngineSuite) TestExitGameCancelsTimers() {
	s.startPlaying(model.ModeNormal, 3)
	s.submitLetters("C", "T")
	s.Require().Equal(1, s.clock.PendingTimers())

	s.Require().NoError(s.engine.ExitGame(s.ctx, alice))

	exited := s.notifier.ofType(model.EventGameExited)
	s.Require().Len(exited, 1)
	s.Equal(model.MessagePayload{Message: "Alice has exited the game."}, exited[0].Payload)
	s.Equal(0, s.clock.PendingTimers())

	s.clock.Advance(time.Hour)
	s.Empty(s.notifier.ofType(model.EventRoundEnded))

	s.Require().Len(s.audit.completions, 1)
	s.Equal(model.OutcomeAbandoned, s.audit.completions[0].Outcome)
}

func (s *EngineSuite) TestLeaveDuringStartDelay() {
	s.createAndJoin(model.ModeNormal, 3)
	s.Require().NoError(s.engine.StartGame(s.ctx, alice))
	s.Require().NoError(s.engine.LeaveLobby(s.ctx, alice))

	s.clock.Advance(StartDelay)
	s.Empty(s.notifier.ofType(model.EventRoundStarted))
}

func (s *EngineSuite) TestExitBeforeGameEndedBroadcast() {
	s.startPlaying(model.ModeNormal, 1)
	s.submitLetters("C", "T")
	s.Require().NoError(s.engine.SubmitWord(s.ctx, alice, "cat"))
	s.Require().NoError(s.engine.ExitGame(s.ctx, bob))

	s.clock.Advance(GameEndedDelay)
	s.Empty(s.notifier.ofType(model.EventGameEnded))
	s.Len(s.audit.completions, 1, "finished game is not recorded again as abandoned")
}

func (s *EngineSuite) TestDisconnect() {
	code := s.startPlaying(model.ModeNormal, 3)

	s.engine.Disconnect(s.ctx, bob)

	disconnected := s.notifier.ofType(model.EventPlayerDisconnected)
	s.Require().Len(disconnected, 1)
	s.Equal(code, disconnected[0].Room)
	s.Equal(model.MessagePayload{Message: "Opponent disconnected"}, disconnected[0].Payload)
	s.Equal(0, s.engine.RoomCount())
	s.Equal(0, s.clock.PendingTimers())

	// The remaining player can start over
	_, err := s.engine.CreateGame(s.ctx, alice, model.CreateGameIntent{PlayerName: "Alice"})
	s.NoError(err)
}

func (s *EngineSuite) TestShutdown() {
	s.random.QueueString("AAAAAA", "BBBBBB")
	s.startPlaying(model.ModeNormal, 3)
	_, _ = s.engine.CreateGame(s.ctx, carol, model.CreateGameIntent{PlayerName: "Carol"})

	s.engine.Shutdown()

	s.Equal(0, s.engine.RoomCount())
	s.Equal(0, s.clock.PendingTimers())
}

// Query tests

func (s *EngineSuite) TestSnapshot() {
	code := s.startPlaying(model.ModeBattleRoyale, 7)

	snap, err := s.engine.Snapshot(code)
	s.Require().NoError(err)
	s.Equal(string(code), snap.GameID)
	s.Equal(model.StatusPlaying, snap.Status)
	s.Equal(7, snap.RoundsToWin)
	s.Equal(1, snap.RoundCounter)
	s.Require().Len(snap.Players, 2)
	s.Equal("Bob", snap.Players[1].Name)
}

func (s *EngineSuite) TestOpponent() {
	_, err := s.engine.CreateGame(s.ctx, alice, model.CreateGameIntent{PlayerName: "Alice"})
	s.Require().NoError(err)

	_, ok := s.engine.Opponent(alice)
	s.False(ok, "no opponent until someone joins")

	s.Require().NoError(s.engine.JoinGame(s.ctx, bob, model.JoinGameIntent{RoomCode: "ROOM01", PlayerName: "Bob"}))

	opp, ok := s.engine.Opponent(alice)
	s.True(ok)
	s.Equal(bob, opp)
	opp, ok = s.engine.Opponent(bob)
	s.True(ok)
	s.Equal(alice, opp)

	_, ok = s.engine.Opponent(carol)
	s.False(ok)
}
