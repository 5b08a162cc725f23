package lens

import "strings"

// Unknown is the placeholder lensfun accepts for unidentified makers and mounts.
const Unknown = "[unknown]"

// ResolveMakerMount derives the lensfun maker and mount from the lens model and
// the LensMake tag. Olympus bodies report Four Thirds and OM lenses without a
// LensMake, so those are recognised from the model string.
func ResolveMakerMount(model, lensMake string) (maker, mount string) {
	maker = strings.TrimSpace(lensMake)
	mount = Unknown
	switch {
	case strings.Contains(model, "Olympus Zuiko Digital"):
		maker = "Olympus Zuiko Digital"
		mount = "4/3 System"
	case strings.Contains(model, "Olympus OM System"):
		maker = "Olympus Zuiko OM System"
		mount = "Olympus OM"
	case strings.Contains(model, "Olympus M.") || strings.HasPrefix(model, "OLYMPUS M."):
		if maker == "" {
			maker = "Olympus"
		}
		mount = "Micro 4/3 System"
	}
	if maker == "" || strings.EqualFold(maker, "none") {
		maker = Unknown
	}
	return maker, mount
}
