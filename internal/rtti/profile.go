package rtti

// Profile holds per-generation constants for VMT layout scanning. Distance is
// the byte offset from a vftable's own address to the value stored in its
// self-referencing first field, i.e. where the virtual method slots begin.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Distance    uint32 `json:"distance"`
	PointerSize int    `json:"pointer_size"` // 4; a wider-pointer profile would change this
	Alignment   int    `json:"alignment"`    // scan stride
}

var (
	// ProfileLegacy covers executables produced before Delphi 2010.
	ProfileLegacy = Profile{
		Name:        "delphi_legacy",
		Description: "Delphi (legacy, pre-2010)",
		Distance:    0x4C,
		PointerSize: 4,
		Alignment:   4,
	}

	// ProfileModern covers Delphi 2010 and later, which insert the Equals,
	// GetHashCode and ToString slots ahead of the method table.
	ProfileModern = Profile{
		Name:        "delphi_modern",
		Description: "Delphi (modern, 2010+)",
		Distance:    0x58,
		PointerSize: 4,
		Alignment:   4,
	}
)

// DefaultProfiles returns the known layout generations in scan order.
func DefaultProfiles() []Profile {
	return []Profile{ProfileLegacy, ProfileModern}
}

// FindProfile looks up a profile by name.
func FindProfile(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// modern reports whether this profile carries the Delphi 2010+ extra slots.
func (p Profile) modern() bool { return p.Distance >= ProfileModern.Distance }
