package device

// PackType identifies a battery pack model.
type PackType string

const (
	PackAB1000  PackType = "AB1000"
	PackAB2000  PackType = "AB2000"
	PackAB2000S PackType = "AB2000S"
	PackAIO2400 PackType = "AIO2400"

	// PackUnknown is reported for serial prefixes we cannot map.
	PackUnknown PackType = ""
)

// DerivePackType determines a battery pack's model from the owning
// device's product key and the pack serial number.
//
// AIO devices embed their single pack, so the product key decides.
// External packs encode the model in the serial prefix: "A..." is an
// AB1000, "C..." is an AB2000 where a fourth character of 'F' marks the
// AB2000S revision.
func DerivePackType(productKey, serial string) PackType {
	if productKey == ProductKeyAio {
		return PackAIO2400
	}
	if serial == "" {
		return PackUnknown
	}

	switch serial[0] {
	case 'A':
		return PackAB1000
	case 'C':
		if len(serial) >= 4 && serial[3] == 'F' {
			return PackAB2000S
		}
		return PackAB2000
	}
	return PackUnknown
}
