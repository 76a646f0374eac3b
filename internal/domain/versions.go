package domain

// ActiveVersion returns the active version of an item, or nil when the parent
// itself is the active display value.
func (it *ITTOItem) ActiveVersion() *ITTOItem {
	for i := range it.Versions {
		if it.Versions[i].IsActive {
			return &it.Versions[i]
		}
	}
	return nil
}

// DisplayName resolves the name shown for the item slot: the active version's
// when one is marked, the parent's otherwise.
func (it *ITTOItem) DisplayName() string {
	if v := it.ActiveVersion(); v != nil {
		return v.Name
	}
	return it.Name
}

// DisplayURL resolves the url shown for the item slot.
func (it *ITTOItem) DisplayURL() string {
	if v := it.ActiveVersion(); v != nil {
		return v.URL
	}
	return it.URL
}

// SetActiveVersion marks exactly the named version active and all siblings
// inactive. Passing the parent's own id deactivates every version, making the
// parent the active display value again.
func (it *ITTOItem) SetActiveVersion(versionID string) {
	for i := range it.Versions {
		it.Versions[i].IsActive = it.Versions[i].ID == versionID && versionID != it.ID
	}
}

// AddVersion appends a version and makes it the active one.
func (it *ITTOItem) AddVersion(v ITTOItem) {
	for i := range it.Versions {
		it.Versions[i].IsActive = false
	}
	v.IsActive = true
	it.Versions = append(it.Versions, v)
}

// DeleteVersion removes the named version. When the removed version was the
// active one, the version at the preceding index (floor 0) is promoted so the
// "at most one active" invariant holds; deleting the last remaining version
// leaves the parent implicitly active. Reports whether a version was removed.
func (it *ITTOItem) DeleteVersion(versionID string) bool {
	idx := -1
	for i := range it.Versions {
		if it.Versions[i].ID == versionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	wasActive := it.Versions[idx].IsActive
	it.Versions = append(it.Versions[:idx], it.Versions[idx+1:]...)
	if len(it.Versions) == 0 {
		it.Versions = nil
		return true
	}
	if wasActive {
		promote := idx - 1
		if promote < 0 {
			promote = 0
		}
		it.Versions[promote].IsActive = true
	}
	return true
}

// CollapseIntoParent replaces a parent slot with one of its versions, used
// when deleting a parent that still has versions. The active version is
// preferred, otherwise the last one; its name and url are copied onto the
// parent slot and it is dropped from the versions list. The parent's id and
// list position are preserved so references stay valid.
func (it *ITTOItem) CollapseIntoParent() {
	if len(it.Versions) == 0 {
		return
	}
	idx := len(it.Versions) - 1
	for i := range it.Versions {
		if it.Versions[i].IsActive {
			idx = i
			break
		}
	}
	chosen := it.Versions[idx]
	it.Name = chosen.Name
	it.URL = chosen.URL
	it.Versions = append(it.Versions[:idx], it.Versions[idx+1:]...)
	if len(it.Versions) == 0 {
		it.Versions = nil
	}
	for i := range it.Versions {
		it.Versions[i].IsActive = false
	}
}
