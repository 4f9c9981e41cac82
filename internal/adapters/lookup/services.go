package lookup

import "strings"

// knownServices maps service UUIDs (upper-case, full 128-bit form) to
// human-readable names.
var knownServices = map[string]string{
	"0000180F-0000-1000-8000-00805F9B34FB": "Battery Service",
	"0000180A-0000-1000-8000-00805F9B34FB": "Device Information",
	"0000181B-0000-1000-8000-00805F9B34FB": "Body Composition",
	"0000110B-0000-1000-8000-00805F9B34FB": "Audio Sink",
	"0000110E-0000-1000-8000-00805F9B34FB": "A/V Remote Control",
	"74EC2172-0BAD-4D01-8F77-997B2BE0722A": "Apple Continuity",
	"D0611E78-BBB4-4591-A5F8-487910AE4366": "Apple Nearby",
	"89D3502B-0F36-433A-8EF4-C502AD55F8DC": "Apple Nearby Action",
}

// ServiceNames renders an advertised service UUID list as a comma-separated
// human-readable string. Unknown UUIDs degrade to a truncated custom label;
// resolution never fails.
func ServiceNames(uuids []string) string {
	if len(uuids) == 0 {
		return "No services"
	}
	names := make([]string, 0, len(uuids))
	for _, u := range uuids {
		upper := strings.ToUpper(u)
		if name, ok := knownServices[upper]; ok {
			names = append(names, name)
			continue
		}
		prefix := upper
		if len(prefix) > 8 {
			prefix = prefix[:8]
		}
		names = append(names, "Custom ("+prefix+"...)")
	}
	return strings.Join(names, ", ")
}
