package domain

import "context"

type Preferences struct {
	Timezone      string   `json:"timezone"`
	Theme         string   `json:"theme"`
	Favorites     []string `json:"favorites"`
	Notifications bool     `json:"notifications"`
}

// DefaultPreferences is what a fresh deployment starts with.
func DefaultPreferences(timezone string) Preferences {
	return Preferences{
		Timezone:  timezone,
		Theme:     "system",
		Favorites: []string{},
	}
}

type PreferencesStore interface {
	Load(ctx context.Context) (*Preferences, error)
	Save(ctx context.Context, prefs Preferences) error
}
