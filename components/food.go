package components

// Food is a free-floating energy parcel. Spilled reproduction-bank
// overflow materializes as Food so energy is never silently destroyed.
type Food struct {
	Amount float64
}
