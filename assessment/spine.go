package assessment

import (
	"fmt"

	"github.com/liamcoop/spinecheck/catalog"
)

// Spine diagram sections
const (
	SectionCervical = "cervical"
	SectionThoracic = "thoracic"
	SectionLumbar   = "lumbar"
	SectionSacral   = "sacral"
)

var sectionLocations = map[string]string{
	SectionCervical: catalog.LocationNeck,
	SectionThoracic: catalog.LocationUpperBack,
	SectionLumbar:   catalog.LocationLowerBack,
	SectionSacral:   catalog.LocationLeg,
}

// LocationForSection maps a clicked spine section to its location tag
func LocationForSection(section string) (string, error) {
	loc, ok := sectionLocations[section]
	if !ok {
		return "", fmt.Errorf("unknown spine section %q", section)
	}
	return loc, nil
}

// ToggleLocation ticks the location if it is not selected and unticks it otherwise
func (r *Response) ToggleLocation(tag string) {
	for i, l := range r.Locations {
		if l == tag {
			r.Locations = append(r.Locations[:i:i], r.Locations[i+1:]...)
			return
		}
	}
	r.Locations = append(r.Locations, tag)
}
