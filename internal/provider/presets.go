package provider

import (
	"fmt"
	"sort"

	"golang.org/x/oauth2"
)

// UnderArmourEndpoint is the Under Armour (MapMyFitness) OAuth 2.0 endpoint.
var UnderArmourEndpoint = oauth2.Endpoint{
	AuthURL:   "https://www.mapmyfitness.com/v7.1/oauth2/authorize/",
	TokenURL:  "https://api.ua.com/v7.1/oauth2/access_token/",
	AuthStyle: oauth2.AuthStyleInParams,
}

// UnderArmour returns the Under Armour preset with the given credentials.
func UnderArmour(clientID, clientSecret string) Config {
	return Config{
		Name:             "underarmour",
		Endpoint:         UnderArmourEndpoint,
		ResourceOwnerURL: "https://api.ua.com/v7.1/user/self/",
		RevokeURL:        "https://api.ua.com/v7.1/oauth2/connection/",
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		ScopeSeparator:   ",",
		TokenOwnerField:  "user_id",
		APIKeyHeader:     "Api-Key",
	}
}

var presets = map[string]func(clientID, clientSecret string) Config{
	"underarmour": UnderArmour,
}

// Preset looks up a named provider preset.
func Preset(name, clientID, clientSecret string) (Config, error) {
	fn, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown provider preset %q (known: %v)", name, PresetNames())
	}
	return fn(clientID, clientSecret), nil
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
