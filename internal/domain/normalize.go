package domain

import "github.com/google/uuid"

// NormalizeItems backfills stable ids on items that predate the versioning
// feature (upstream data may ship without them) and recurses into versions.
// IsActive zero-values to false by decoding, so only ids need repair.
func NormalizeItems(items []ITTOItem) []ITTOItem {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].Versions = NormalizeItems(items[i].Versions)
	}
	return items
}

// NormalizeProcess normalizes all ITTO lists of a process, including every
// customization's lists.
func NormalizeProcess(p *Process) {
	p.Inputs = NormalizeItems(p.Inputs)
	p.Tools = NormalizeItems(p.Tools)
	p.Outputs = NormalizeItems(p.Outputs)
	for i := range p.Customizations {
		c := &p.Customizations[i]
		c.Inputs = NormalizeItems(c.Inputs)
		c.Tools = NormalizeItems(c.Tools)
		c.Outputs = NormalizeItems(c.Outputs)
	}
}
