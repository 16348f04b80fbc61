// conf/consts.go fixed vocabulary shared across packages
package conf

// Tone steers the generative model's phrasing.
const (
	ToneAppreciative  = "appreciative"
	ToneDevelopmental = "developmental"
	ToneNeutral       = "neutral"
)

// ValidTone reports whether t is a recognized tone.
func ValidTone(t string) bool {
	switch t {
	case ToneAppreciative, ToneDevelopmental, ToneNeutral:
		return true
	}
	return false
}
