package domain

import "time"

// SectionToggles controls which landing-page sections are shown.
type SectionToggles struct {
	HeroSection    bool `json:"hero_section"`
	BooksSection   bool `json:"books_section"`
	ContactSection bool `json:"contact_section"`
}

// ContactLinks holds the public contact channels.
type ContactLinks struct {
	Telegram string `json:"telegram"`
	WhatsApp string `json:"whatsapp"`
	Email    string `json:"email"`
}

// SiteInfo holds the public site identity.
type SiteInfo struct {
	SiteName        string  `json:"site_name"`
	SiteDescription string  `json:"site_description"`
	Logo            FileRef `json:"logo"`
}

// EmailSettings controls transactional email behavior.
type EmailSettings struct {
	EnableNotifications bool   `json:"enable_notifications"`
	AdminEmail          string `json:"admin_email"`
}

// PaymentSettings holds the manual payment fallback configuration.
type PaymentSettings struct {
	AcceptedMethods []string `json:"accepted_methods"`
	Instructions    string   `json:"instructions"`
}

// Settings is the single site-settings document.
type Settings struct {
	ID              string          `json:"id"`
	Sections        SectionToggles  `json:"sections"`
	Contacts        ContactLinks    `json:"contacts"`
	SiteInfo        SiteInfo        `json:"site_info"`
	EmailSettings   EmailSettings   `json:"email_settings"`
	PaymentSettings PaymentSettings `json:"payment_settings"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DefaultSettings returns the settings document created on first access.
func DefaultSettings() *Settings {
	return &Settings{
		Sections: SectionToggles{
			HeroSection:    true,
			BooksSection:   true,
			ContactSection: true,
		},
		Contacts: ContactLinks{
			Telegram: "@davybookzone",
			WhatsApp: "+2250799781292",
			Email:    "contact@davybookzone.com",
		},
		SiteInfo: SiteInfo{
			SiteName:        "DavyBookZone",
			SiteDescription: "Votre destination pour les livres numériques PDF",
		},
		EmailSettings: EmailSettings{
			EnableNotifications: true,
			AdminEmail:          "admin@davybookzone.com",
		},
		PaymentSettings: PaymentSettings{
			Instructions: "Contactez-nous via Telegram ou WhatsApp pour finaliser votre achat.",
		},
	}
}
