package models

// Format enumerates the supported tournament formats. Dispatch over a
// Format must be an exhaustive switch so a new format cannot be added
// without touching every dispatch site.
type Format string

const (
	FormatSingleElimination Format = "Single_Elimination"
	FormatDoubleElimination Format = "Double_Elimination"
	FormatSwiss             Format = "Swiss"
)

func (f Format) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElimination, FormatSwiss:
		return true
	}
	return false
}
