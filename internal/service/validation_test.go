package service

import (
	"strings"
	"testing"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
)

// =============================================================================
// Password Validation Tests
// =============================================================================

func TestValidatePassword_MinimumLength(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		valid    bool
	}{
		{"too short - 7 chars", "Abcdef1", false},
		{"minimum - 8 chars", "Abcdef12", true},
		{"longer - 12 chars", "Abcdefgh1234", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.password)
			if tc.valid && err != nil {
				t.Errorf("expected valid, got error: %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("expected error for short password")
			}
		})
	}
}

func TestValidatePassword_MaximumLength(t *testing.T) {
	// 72 is the bcrypt limit
	atLimit := strings.Repeat("Aa1", 24)
	if err := validatePassword(atLimit); err != nil {
		t.Errorf("expected 72-char password to be valid, got: %v", err)
	}

	tooLong := atLimit + "x"
	err := validatePassword(tooLong)
	if err == nil {
		t.Fatal("expected error for 73-char password")
	}
	if domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected EINVALID, got %q", domain.ErrorCode(err))
	}
}

// =============================================================================
// Email Validation Tests
// =============================================================================

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		name  string
		email string
		valid bool
	}{
		{"empty", "", false},
		{"plain address", "user@example.com", true},
		{"subdomain", "user@mail.example.com", true},
		{"no at sign", "userexample.com", false},
		{"two at signs", "user@@example.com", false},
		{"missing local part", "@example.com", false},
		{"missing domain", "user@", false},
		{"domain without dot", "user@localhost", false},
		{"too long", strings.Repeat("a", 250) + "@e.co", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateEmail(tc.email)
			if tc.valid && err != nil {
				t.Errorf("expected %q valid, got error: %v", tc.email, err)
			}
			if !tc.valid {
				if err == nil {
					t.Fatalf("expected error for %q", tc.email)
				}
				if domain.ErrorCode(err) != domain.EINVALID {
					t.Errorf("expected EINVALID, got %q", domain.ErrorCode(err))
				}
			}
		})
	}
}

// =============================================================================
// Request Creation Validation Tests
// =============================================================================

func TestValidateCreateRequestParams(t *testing.T) {
	valid := domain.CreateRequestParams{
		PickupAddress:   "Keizersgracht 1",
		DeliveryAddress: "Herengracht 2",
		City:            "Amsterdam",
		PostalCode:      "1015 CJ",
		Description:     "Two-bedroom apartment move",
	}

	if err := validateCreateRequestParams("request.create", valid); err != nil {
		t.Fatalf("expected valid params, got: %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(p *domain.CreateRequestParams)
	}{
		{"missing pickup address", func(p *domain.CreateRequestParams) { p.PickupAddress = "" }},
		{"whitespace pickup address", func(p *domain.CreateRequestParams) { p.PickupAddress = "   " }},
		{"missing delivery address", func(p *domain.CreateRequestParams) { p.DeliveryAddress = "" }},
		{"missing city", func(p *domain.CreateRequestParams) { p.City = "" }},
		{"missing postal code", func(p *domain.CreateRequestParams) { p.PostalCode = "" }},
		{"missing description", func(p *domain.CreateRequestParams) { p.Description = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := valid
			tc.mutate(&params)
			err := validateCreateRequestParams("request.create", params)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if domain.ErrorCode(err) != domain.EINVALID {
				t.Errorf("expected EINVALID, got %q", domain.ErrorCode(err))
			}
			if domain.ErrorOp(err) != "request.create" {
				t.Errorf("expected op request.create, got %q", domain.ErrorOp(err))
			}
		})
	}
}

// =============================================================================
// Postal Code Normalization Tests
// =============================================================================

func TestNormalizePostalCode(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"1012 ab", "1012AB"},
		{"1012AB", "1012AB"},
		{"  1012 Ab ", "1012AB"},
		{"90210", "90210"},
		{"", ""},
	}

	for _, tc := range testCases {
		if got := normalizePostalCode(tc.in); got != tc.want {
			t.Errorf("normalizePostalCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// =============================================================================
// Board Statistics Tests
// =============================================================================

func TestBoardStatistics(t *testing.T) {
	board := &domain.ManagerBoard{
		Visible:     make([]domain.Request, 3),
		Blurred:     make([]domain.BlurredRequest, 2),
		Available:   make([]domain.Request, 7),
		Reclaimable: make([]domain.Request, 1),
	}
	limit := domain.ViewLimit{Viewed: 3, Limit: 5, Remaining: 2}

	stats := boardStatistics(board, limit)

	if stats.Visible != 3 || stats.Blurred != 2 || stats.Available != 7 || stats.Reclaimable != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.Viewed != 3 || stats.Limit != 5 || stats.Remaining != 2 {
		t.Errorf("unexpected quota fields: %+v", stats)
	}
}

func TestBoardStatistics_Unlimited(t *testing.T) {
	board := &domain.ManagerBoard{Visible: make([]domain.Request, 40)}
	limit := domain.ViewLimit{
		Viewed:    40,
		Limit:     domain.UnlimitedViews,
		Remaining: domain.UnlimitedViews,
		Unlimited: true,
	}

	stats := boardStatistics(board, limit)

	if stats.Limit != domain.UnlimitedViews || stats.Remaining != domain.UnlimitedViews {
		t.Errorf("expected unlimited sentinel carried through, got %+v", stats)
	}
}
