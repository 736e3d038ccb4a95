package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/signoffhq/signoff/internal/config"
	"github.com/signoffhq/signoff/internal/models"
	slackapi "github.com/slack-go/slack"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.NotificationRecord{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testAssignment() *models.Assignment {
	return &models.Assignment{
		ID:              "asg-0a1b2",
		Transition:      "submit_for_approval",
		FromRole:        "tester",
		ToRole:          "report_owner",
		Title:           "Review CTL-7 v2",
		Status:          "assigned",
		EscalationLevel: 1,
		DueAt:           time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC),
	}
}

func TestEventTitle(t *testing.T) {
	a := testAssignment()
	tests := []struct {
		kind string
		want string
	}{
		{EventCreated, "Assignment asg-0a1b2: tester → report_owner"},
		{EventEscalated, "Assignment asg-0a1b2 escalated to level 1"},
		{EventCompleted, "Assignment asg-0a1b2 completed"},
		{"assignment.other", "Assignment asg-0a1b2: assignment.other"},
	}
	for _, tt := range tests {
		ev := Event{Kind: tt.kind, Assignment: a}
		if got := ev.Title(); got != tt.want {
			t.Errorf("Title(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestEventBody(t *testing.T) {
	ev := Event{Kind: EventEscalated, Assignment: testAssignment(), Detail: "re-routed to manager"}
	body := ev.Body()
	if !strings.Contains(body, "Review CTL-7 v2") {
		t.Errorf("Body() = %q, missing title", body)
	}
	if !strings.Contains(body, "re-routed to manager") {
		t.Errorf("Body() = %q, missing detail", body)
	}
}

func TestRecorder(t *testing.T) {
	db := testDB(t)
	r := Recorder{DB: db}

	r.Notify(context.Background(), Event{Kind: EventCreated, Assignment: testAssignment()})

	var recs []models.NotificationRecord
	if err := db.Find(&recs).Error; err != nil {
		t.Fatalf("find records: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Kind != EventCreated || rec.AssignmentID != "asg-0a1b2" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Transition != "submit_for_approval" || rec.ToRole != "report_owner" || rec.Level != 1 {
		t.Errorf("record fields = %+v", rec)
	}
}

type countingDispatcher struct {
	events []Event
}

func (c *countingDispatcher) Notify(_ context.Context, ev Event) {
	c.events = append(c.events, ev)
}

func TestMulti(t *testing.T) {
	a := &countingDispatcher{}
	b := &countingDispatcher{}
	m := Multi{a, b}

	m.Notify(context.Background(), Event{Kind: EventCreated, Assignment: testAssignment()})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("fan-out = %d, %d; want 1, 1", len(a.events), len(b.events))
	}
}

type mockSlack struct {
	channel string
	options int
	err     error
}

func (m *mockSlack) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channel = channelID
	m.options = len(options)
	return "", "", m.err
}

func TestSlackNotify(t *testing.T) {
	mock := &mockSlack{}
	s := &Slack{Client: mock, Channel: "C123"}

	s.Notify(context.Background(), Event{Kind: EventCompleted, Assignment: testAssignment()})

	if mock.channel != "C123" {
		t.Errorf("channel = %q", mock.channel)
	}
	if mock.options == 0 {
		t.Error("no message options posted")
	}
}

type mockSession struct {
	channel string
	embed   *discordgo.MessageEmbed
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.channel = channelID
	m.embed = embed
	return &discordgo.Message{}, nil
}

func TestDiscordNotify(t *testing.T) {
	mock := &mockSession{}
	d := &Discord{Session: mock, ChannelID: "999"}

	d.Notify(context.Background(), Event{Kind: EventEscalated, Assignment: testAssignment()})

	if mock.channel != "999" {
		t.Errorf("channel = %q", mock.channel)
	}
	if mock.embed == nil || !strings.Contains(mock.embed.Title, "escalated") {
		t.Errorf("embed = %+v", mock.embed)
	}
	if mock.embed.Color != parseHexColor(colorWarning) {
		t.Errorf("Color = %d", mock.embed.Color)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex  string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"2196f3", 0x2196f3},
		{"#FF9800", 0xff9800},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.hex); got != tt.want {
			t.Errorf("parseHexColor(%q) = %#x, want %#x", tt.hex, got, tt.want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	db := testDB(t)

	cfg := &config.Config{}
	stack, ok := FromConfig(cfg, db).(Multi)
	if !ok {
		t.Fatal("FromConfig did not return a Multi")
	}
	if len(stack) != 2 {
		t.Errorf("bare stack = %d dispatchers, want log + recorder", len(stack))
	}

	cfg.Notify.Slack.Token = "xoxb-test"
	cfg.Notify.Slack.Channel = "C123"
	stack = FromConfig(cfg, db).(Multi)
	if len(stack) != 3 {
		t.Errorf("slack stack = %d dispatchers, want 3", len(stack))
	}

	cfg.Notify.Discord.Token = "token"
	cfg.Notify.Discord.ChannelID = "999"
	stack = FromConfig(cfg, db).(Multi)
	if len(stack) != 4 {
		t.Errorf("full stack = %d dispatchers, want 4", len(stack))
	}
}
