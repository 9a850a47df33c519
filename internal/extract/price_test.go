package extract

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		none bool
	}{
		{"dollar symbol", "$19.99", 19.99, false},
		{"thousands separator", "$1,299.99", 1299.99, false},
		{"separator without cents", "£1,050", 1050, false},
		{"currency code", "USD 25", 25, false},
		{"pound symbol", "£9.99", 9.99, false},
		{"euro code", "Price: EUR 349.00", 349, false},
		{"first price wins", "was $89.99 now $69.99", 89.99, false},
		{"whole dollars in prose", "Now from $49 with free shipping", 49, false},
		{"no currency marker", "4999 sold this month", 0, true},
		{"no price at all", "Check availability in store", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePrice(tt.text)
			if tt.none {
				if got != nil {
					t.Errorf("parsePrice(%q) = %v, want nil", tt.text, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parsePrice(%q) = nil, want %v", tt.text, tt.want)
			}
			if *got != tt.want {
				t.Errorf("parsePrice(%q) = %v, want %v", tt.text, *got, tt.want)
			}
		})
	}
}

func TestHasCurrency(t *testing.T) {
	if !hasCurrency("only $5 today") {
		t.Error("hasCurrency should detect a dollar amount")
	}
	if hasCurrency("price on request") {
		t.Error("hasCurrency should ignore text without amounts")
	}
	if hasCurrency("the USDA recommends") {
		t.Error("hasCurrency should not treat USDA as a currency code")
	}
}

func TestIsPriceText(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"$19.99", true},
		{"  £24.50  ", true},
		{"$12.99 - $15.99", true},
		{"19.99", false},
		{"This fantastic product normally retails for $199.99", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isPriceText(tt.text); got != tt.want {
			t.Errorf("isPriceText(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestStripPriceText(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Widget Pro - $29.99", "Widget Pro"},
		{"$15.00", ""},
		{"Trail Camera", "Trail Camera"},
		{"£24.99 | Ergonomic Chair", "Ergonomic Chair"},
	}
	for _, tt := range tests {
		if got := stripPriceText(tt.text); got != tt.want {
			t.Errorf("stripPriceText(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
