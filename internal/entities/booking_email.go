package entities

type BookingEmailData struct {
	ClientName         string
	BookingCode        string
	SalonName          string
	EventTypeName      string
	ProviderName       string
	StartTimeFormatted string
	EndTimeFormatted   string
	CurrentYear        int
	Language           string
	Status             string
}
