package dashboard

// View is the presentation surface driven by the Controller. Calls are
// serialized by the controller.
type View interface {
	ShowLoader()
	HideLoader()
	SetPriceBounds(lower, upper int)
	SetTableBody(body TableBody)
	// SetHistogram and SetScatter hand over the current chart. The view must
	// not use a previous chart after it has been replaced.
	SetHistogram(c *Chart)
	SetScatter(c *Chart)
}

// MultiView fans every call out to each view in order.
type MultiView []View

func (m MultiView) ShowLoader() {
	for _, v := range m {
		v.ShowLoader()
	}
}

func (m MultiView) HideLoader() {
	for _, v := range m {
		v.HideLoader()
	}
}

func (m MultiView) SetPriceBounds(lower, upper int) {
	for _, v := range m {
		v.SetPriceBounds(lower, upper)
	}
}

func (m MultiView) SetTableBody(body TableBody) {
	for _, v := range m {
		v.SetTableBody(body)
	}
}

func (m MultiView) SetHistogram(c *Chart) {
	for _, v := range m {
		v.SetHistogram(c)
	}
}

func (m MultiView) SetScatter(c *Chart) {
	for _, v := range m {
		v.SetScatter(c)
	}
}
