package domain

// CloneItems deep-copies an ITTO list including nested versions.
func CloneItems(items []ITTOItem) []ITTOItem {
	if items == nil {
		return nil
	}
	out := make([]ITTOItem, len(items))
	for i, it := range items {
		it.Versions = CloneItems(it.Versions)
		out[i] = it
	}
	return out
}

// Clone deep-copies a customization.
func (cz Customization) Clone() Customization {
	cz.Inputs = CloneItems(cz.Inputs)
	cz.Tools = CloneItems(cz.Tools)
	cz.Outputs = CloneItems(cz.Outputs)
	return cz
}

// Clone deep-copies a process, including customizations and the active
// customization marker.
func (p Process) Clone() Process {
	if p.Status != nil {
		s := *p.Status
		p.Status = &s
	}
	if p.Stage != nil {
		g := *p.Stage
		p.Stage = &g
	}
	if p.Phase != nil {
		g := *p.Phase
		p.Phase = &g
	}
	p.Inputs = CloneItems(p.Inputs)
	p.Tools = CloneItems(p.Tools)
	p.Outputs = CloneItems(p.Outputs)
	if p.Customizations != nil {
		cs := make([]Customization, len(p.Customizations))
		for i, c := range p.Customizations {
			cs[i] = c.Clone()
		}
		p.Customizations = cs
	}
	if p.ActiveCustomization != nil {
		c := p.ActiveCustomization.Clone()
		p.ActiveCustomization = &c
	}
	return p
}
