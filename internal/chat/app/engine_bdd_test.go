package app

import (
	"fmt"
	"testing"

	"ephemeral_chat/internal/chat/domain"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/mock"
)

const engineFeature = `
Feature: room session reconciliation
  In order to chat anonymously
  As an ephemeral session
  I want rooms, numbers and previews to reconcile deterministically

  Scenario: free text navigation lands in the sanitized room
    Given an established session in room "lobby"
    When the session navigates to "Hello World/Test"
    Then the active room is "hello_world÷test"

  Scenario: first keystroke takes the next number in the room
    Given an established session in room "lobby"
    When the session types "h"
    Then the session's shape name is "POINT"
    And the timeline shows a join notice "POINT joined"

  Scenario: a peer's preview is superseded by the confirmed message
    Given an established session in room "lobby"
    When a peer broadcasts the preview "hello there"
    Then a ghost with content "hello there" is visible
    When the peer's message "hello there" is confirmed
    Then no ghosts are visible
    And the timeline shows "hello there" exactly 1 time

  Scenario: the presence registry drives the viewer count
    Given an established session in room "lobby"
    When the presence registry reports 4 occupants
    Then 4 viewers are reported
`

type engineScenario struct {
	t *testing.T
	f *controllerFixture
}

func (s *engineScenario) establishedSession(room string) error {
	s.f = newActiveFixture(s.t, room, nil)
	s.f.msgs.On("InsertMessage", mock.Anything, mock.Anything).Return(nil)
	s.f.rt.On("PublishMessage", mock.Anything, mock.Anything).Return(nil)
	s.f.rt.On("PublishTyping", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return nil
}

func (s *engineScenario) navigatesTo(raw string) error {
	s.f.expectRoom(domain.SanitizeRoomName(raw), nil)
	if err := s.f.ctrl.Navigate(raw, false); err != nil {
		return err
	}
	s.f.waitActive(s.t, domain.SanitizeRoomName(raw))
	return nil
}

func (s *engineScenario) activeRoomIs(room string) error {
	if got := s.f.ctrl.Snapshot().RoomID; got != room {
		return fmt.Errorf("active room %q, want %q", got, room)
	}
	return nil
}

func (s *engineScenario) types(content string) error {
	s.f.ctrl.InputChanged(content)
	return nil
}

func (s *engineScenario) shapeNameIs(name string) error {
	if got := s.f.ctrl.Snapshot().ShapeName; got != name {
		return fmt.Errorf("shape name %q, want %q", got, name)
	}
	return nil
}

func (s *engineScenario) timelineShowsJoin(content string) error {
	for _, m := range s.f.ctrl.Snapshot().Messages {
		if m.IsJoin() && m.Content == content {
			return nil
		}
	}
	return fmt.Errorf("no join notice %q in timeline", content)
}

func (s *engineScenario) peerBroadcastsPreview(content string) error {
	s.f.deliverTyping(domain.TypingPayload{SenderID: "peer", UserNumber: 2, Content: content})
	return nil
}

func (s *engineScenario) ghostVisible(content string) error {
	for _, g := range s.f.ctrl.Snapshot().Ghosts {
		if g.Content == content {
			return nil
		}
	}
	return fmt.Errorf("no ghost with content %q", content)
}

func (s *engineScenario) peerMessageConfirmed(content string) error {
	m := storeMsg(s.f.ctrl.Snapshot().RoomID, "peer", content, 0)
	m.UserNumber = 2
	s.f.deliverMessage(m)
	return nil
}

func (s *engineScenario) noGhostsVisible() error {
	if ghosts := s.f.ctrl.Snapshot().Ghosts; len(ghosts) > 0 {
		return fmt.Errorf("%d ghosts still visible", len(ghosts))
	}
	return nil
}

func (s *engineScenario) timelineShowsExactly(content string, count int) error {
	got := 0
	for _, m := range s.f.ctrl.Snapshot().Messages {
		if m.Content == content {
			got++
		}
	}
	if got != count {
		return fmt.Errorf("%q appears %d times, want %d", content, got, count)
	}
	return nil
}

func (s *engineScenario) presenceReports(n int) error {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("occupant-%d", i)
	}
	s.f.deliverSync(keys)
	return nil
}

func (s *engineScenario) viewersReported(n int) error {
	if got := s.f.ctrl.Snapshot().ViewerCount; got != n {
		return fmt.Errorf("viewer count %d, want %d", got, n)
	}
	return nil
}

// InitializeEngineScenario binds the feature steps to a fresh fixture per
// scenario.
func InitializeEngineScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		s := &engineScenario{t: t}
		ctx.Step(`^an established session in room "([^"]*)"$`, s.establishedSession)
		ctx.Step(`^the session navigates to "([^"]*)"$`, s.navigatesTo)
		ctx.Step(`^the active room is "([^"]*)"$`, s.activeRoomIs)
		ctx.Step(`^the session types "([^"]*)"$`, s.types)
		ctx.Step(`^the session's shape name is "([^"]*)"$`, s.shapeNameIs)
		ctx.Step(`^the timeline shows a join notice "([^"]*)"$`, s.timelineShowsJoin)
		ctx.Step(`^a peer broadcasts the preview "([^"]*)"$`, s.peerBroadcastsPreview)
		ctx.Step(`^a ghost with content "([^"]*)" is visible$`, s.ghostVisible)
		ctx.Step(`^the peer's message "([^"]*)" is confirmed$`, s.peerMessageConfirmed)
		ctx.Step(`^no ghosts are visible$`, s.noGhostsVisible)
		ctx.Step(`^the timeline shows "([^"]*)" exactly (\d+) time$`, s.timelineShowsExactly)
		ctx.Step(`^the presence registry reports (\d+) occupants$`, s.presenceReports)
		ctx.Step(`^(\d+) viewers are reported$`, s.viewersReported)
	}
}

func TestEngineFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeEngineScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Strict:   true,
			TestingT: t,
			FeatureContents: []godog.Feature{
				{Name: "engine.feature", Contents: []byte(engineFeature)},
			},
		},
	}
	if suite.Run() != 0 {
		t.Fatal("engine feature suite failed")
	}
}
