package device

import "testing"

func TestDerivePackType(t *testing.T) {
	tests := []struct {
		name       string
		productKey string
		serial     string
		want       PackType
	}{
		{"aio product key wins", ProductKeyAio, "CO4H123456", PackAIO2400},
		{"ab1000", "73bkTV", "AO4E123456", PackAB1000},
		{"ab2000", "73bkTV", "CO4H123456", PackAB2000},
		{"ab2000s fourth char F", "73bkTV", "CO4F123456", PackAB2000S},
		{"short C serial", "73bkTV", "CO4", PackAB2000},
		{"unknown prefix", "73bkTV", "XO4E123456", PackUnknown},
		{"empty serial", "73bkTV", "", PackUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivePackType(tt.productKey, tt.serial); got != tt.want {
				t.Errorf("DerivePackType(%q, %q) = %q, want %q", tt.productKey, tt.serial, got, tt.want)
			}
		})
	}
}
