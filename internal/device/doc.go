// Package device models Solarflow devices and their battery packs.
//
// It provides:
//   - Identity and Device types shared across the bridge
//   - Product family classification from product keys and names
//   - Battery pack model derivation from serial prefixes
//   - A cached, SQLite-backed device registry
//
// Family classification matters because limit clamping is family
// specific: ACE units quantize input limits to 100 W steps, Hyper units
// accept higher ceilings, and smart plugs take no limits at all.
package device
