package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Owner:       "5511999999999",
		Type:        Expense,
		Amount:      decimal.RequireFromString("45.90"),
		Description: "no mercado",
		Category:    "Alimentação",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Owner: "", Type: Expense, Amount: decimal.NewFromInt(1), Category: "c"},
		{Owner: "o", Type: "transfer", Amount: decimal.NewFromInt(1), Category: "c"},
		{Owner: "o", Type: Income, Amount: decimal.Zero, Category: "c"},
		{Owner: "o", Type: Income, Amount: decimal.NewFromInt(-3), Category: "c"},
		{Owner: "o", Type: Income, Amount: decimal.NewFromInt(1), Category: " "},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	if got, err := ParseTransactionType(" Income "); err != nil || got != Income {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := ParseTransactionType("transfer"); err == nil {
		t.Fatal("expected error")
	}
}

func TestUserRememberCapsAtTen(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	u := NewUser("5511", start)
	if !u.Preferences.NotificationsEnabled || u.Preferences.SummaryFrequency != "weekly" {
		t.Fatalf("unexpected default preferences: %+v", u.Preferences)
	}
	for i := 0; i < 15; i++ {
		u.Remember(Interaction{Message: fmt.Sprintf("m%d", i), At: start.Add(time.Duration(i) * time.Minute)})
	}
	if len(u.RecentInteractions) != MaxRecentInteractions {
		t.Fatalf("expected %d interactions, got %d", MaxRecentInteractions, len(u.RecentInteractions))
	}
	if u.RecentInteractions[0].Message != "m14" || u.RecentInteractions[9].Message != "m5" {
		t.Fatalf("expected most-recent-first, got %q..%q", u.RecentInteractions[0].Message, u.RecentInteractions[9].Message)
	}
	if !u.UpdatedAt.Equal(start.Add(14 * time.Minute)) {
		t.Fatalf("UpdatedAt not advanced: %v", u.UpdatedAt)
	}
}

func TestCategorySetAdd(t *testing.T) {
	set := DefaultCategories()
	if err := set.Add(Expense, "Pets"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !set.Has(Expense, "Pets") || set.Has(Income, "Pets") {
		t.Fatal("Pets should only be an expense category")
	}
	if err := set.Add(Expense, "Pets"); err != ErrDuplicateCategory {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := set.Add("transfer", "X"); err != ErrInvalidType {
		t.Fatalf("expected invalid type, got %v", err)
	}
	if fresh := DefaultCategories(); fresh.Has(Expense, "Pets") {
		t.Fatal("DefaultCategories must return a copy")
	}
}

func TestWeekOf(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		at    time.Time
		start time.Time
	}{
		{time.Date(2025, 3, 12, 15, 0, 0, 0, loc), time.Date(2025, 3, 10, 0, 0, 0, 0, loc)}, // Wednesday
		{time.Date(2025, 3, 10, 0, 0, 0, 0, loc), time.Date(2025, 3, 10, 0, 0, 0, 0, loc)},  // Monday
		{time.Date(2025, 3, 16, 23, 59, 0, 0, loc), time.Date(2025, 3, 10, 0, 0, 0, 0, loc)}, // Sunday
	}
	for _, tc := range cases {
		p := WeekOf(tc.at)
		if !p.Start.Equal(tc.start) {
			t.Errorf("WeekOf(%v).Start = %v, want %v", tc.at, p.Start, tc.start)
		}
		if !p.Contains(tc.at) {
			t.Errorf("WeekOf(%v) does not contain it", tc.at)
		}
		if p.Contains(tc.start.AddDate(0, 0, 7)) {
			t.Errorf("WeekOf(%v) contains next Monday", tc.at)
		}
	}
}

func TestMonthOf(t *testing.T) {
	p := MonthOf(time.Date(2024, 2, 14, 10, 0, 0, 0, time.UTC))
	if p.Start.Day() != 1 || p.End.Day() != 29 {
		t.Fatalf("unexpected February 2024 bounds: %v - %v", p.Start, p.End)
	}
}

func TestParseIntent(t *testing.T) {
	if in, ok := ParseIntent("resumo_semana"); !ok || in != IntentWeeklySummary {
		t.Fatalf("got %q %v", in, ok)
	}
	if in, ok := ParseIntent("whatever"); ok || in != IntentUnclassified {
		t.Fatalf("got %q %v", in, ok)
	}
	if in, ok := ParseAssistantIntent("nope"); ok || in != AssistUnknown {
		t.Fatalf("got %q %v", in, ok)
	}
}

func TestNormalizeSender(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"5532999", "5532999@s.whatsapp.net"},
		{"+5532999", "5532999@s.whatsapp.net"},
		{" 5532999@s.whatsapp.net ", "5532999@s.whatsapp.net"},
		{"5532999:3@s.whatsapp.net", "5532999@s.whatsapp.net"},
		{"5532999@S.WHATSAPP.NET", "5532999@s.whatsapp.net"},
		{"", ""},
		{"+", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSender(tt.in); got != tt.want {
			t.Errorf("NormalizeSender(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSenderAllowed(t *testing.T) {
	tests := []struct {
		name            string
		sender, allowed string
		want            bool
	}{
		{"phone against jid entry", "5532999", "5532999@s.whatsapp.net", true},
		{"jid against phone entry", "5532999@s.whatsapp.net", "+5532999", true},
		{"other sender", "5532000", "5532999", false},
		{"empty entry allows nobody", "5532999", "", false},
		{"blank sender", " ", "5532999", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SenderAllowed(tt.sender, tt.allowed); got != tt.want {
				t.Errorf("SenderAllowed(%q, %q) = %v", tt.sender, tt.allowed, got)
			}
		})
	}
}
