package domain

import "time"

const (
	// SignupBonus is the credit balance every new account starts with.
	SignupBonus int64 = 50

	DefaultCompany = "My Company"

	APIKeyPrefix      = "dn_"
	APIKeyRandomBytes = 24

	MeteredEndpoint     = "/api/simulate-usage"
	AdminCreditEndpoint = "ADMIN_CREDIT_UPDATE"

	// MaxCreditAdjustment bounds a single admin delta in either direction.
	MaxCreditAdjustment int64 = 1_000_000_000_000

	DashboardLogLimit      = 100
	DefaultUsageWindowDays = 30
)

// Account is a registered customer of the API product.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Company      string    `json:"company"`
	Credits      int64     `json:"credits"`
	APIKey       string    `json:"apiKey,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the public view returned after signup and login.
type Profile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company"`
}

// DashboardProfile is the account view shown on the dashboard, including
// balance and the current API key.
type DashboardProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Credits int64  `json:"credits"`
	Company string `json:"company"`
	APIKey  string `json:"apiKey,omitempty"`
}

func (a *Account) Profile() Profile {
	return Profile{ID: a.ID, Email: a.Email, Name: a.Name, Company: a.Company}
}

func (a *Account) DashboardProfile() DashboardProfile {
	return DashboardProfile{
		Name:    a.Name,
		Email:   a.Email,
		Credits: a.Credits,
		Company: a.Company,
		APIKey:  a.APIKey,
	}
}
