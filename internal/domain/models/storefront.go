package models

// StoreSettings are the merchant/store values shown on the module-five page.
// Loaded from the JSON settings file and optionally overridden by the last
// persisted form submission.
type StoreSettings struct {
	MerchantID  string `json:"merchant_id" yaml:"merchant_id"`
	StoreNumber string `json:"store_number" yaml:"store_number"`
	Street      string `json:"street" yaml:"street"`
	City        string `json:"city" yaml:"city"`
	State       string `json:"state" yaml:"state"`
	Zip         string `json:"zip" yaml:"zip"`
}

// StoreSettingsKeys lists the settings keys in display order.
var StoreSettingsKeys = []string{"merchant_id", "store_number", "street", "city", "state", "zip"}

// Get returns the value for a settings key, or "" for an unknown key.
func (s *StoreSettings) Get(key string) string {
	switch key {
	case "merchant_id":
		return s.MerchantID
	case "store_number":
		return s.StoreNumber
	case "street":
		return s.Street
	case "city":
		return s.City
	case "state":
		return s.State
	case "zip":
		return s.Zip
	}
	return ""
}

// Set assigns the value for a settings key. Unknown keys are ignored.
func (s *StoreSettings) Set(key, value string) {
	switch key {
	case "merchant_id":
		s.MerchantID = value
	case "store_number":
		s.StoreNumber = value
	case "street":
		s.Street = value
	case "city":
		s.City = value
	case "state":
		s.State = value
	case "zip":
		s.Zip = value
	}
}

// FourBoxForm is the four free-text fields posted to /four_box.
type FourBoxForm struct {
	BoxOne   string `json:"box_one"`
	BoxTwo   string `json:"box_two"`
	BoxThree string `json:"box_three"`
	BoxFour  string `json:"box_four"`
}
