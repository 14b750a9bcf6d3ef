package payroll

// Catalog indexes the configured payroll components by id. Build it once per
// run and share it across employees; it is read-only after construction.
type Catalog struct {
	byID map[string]PayrollComponent
}

func NewCatalog(components []PayrollComponent) *Catalog {
	byID := make(map[string]PayrollComponent, len(components))
	for _, component := range components {
		byID[component.ID] = component
	}
	return &Catalog{byID: byID}
}

func (c *Catalog) Lookup(ref string) (PayrollComponent, bool) {
	if c == nil || ref == "" {
		return PayrollComponent{}, false
	}
	component, ok := c.byID[ref]
	return component, ok
}

// IsTaxable reports whether an allowance referencing ref counts toward taxable
// income. Missing refs and unknown components are taxable.
func (c *Catalog) IsTaxable(ref string) bool {
	component, ok := c.Lookup(ref)
	if !ok || component.IsTaxable == nil {
		return true
	}
	return *component.IsTaxable
}

func (c *Catalog) IsSystemCalculated(ref string) bool {
	component, ok := c.Lookup(ref)
	return ok && component.IsSystemCalculated
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}
