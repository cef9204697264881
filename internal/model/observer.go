package model

// Observer receives change notifications from a Model. Every structural
// change (count or order) is bracketed by exactly one LayoutAboutToChange
// and one LayoutChanged call; positions cached by the observer must be
// re-derived in between. ItemChanged reports a content refresh that left
// the position of every entry untouched.
type Observer interface {
	LayoutAboutToChange()
	LayoutChanged()
	ItemChanged(pos int)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	AboutToChange func()
	Changed       func()
	Item          func(pos int)
}

func (o ObserverFuncs) LayoutAboutToChange() {
	if o.AboutToChange != nil {
		o.AboutToChange()
	}
}

func (o ObserverFuncs) LayoutChanged() {
	if o.Changed != nil {
		o.Changed()
	}
}

func (o ObserverFuncs) ItemChanged(pos int) {
	if o.Item != nil {
		o.Item(pos)
	}
}

type nopObserver struct{}

func (nopObserver) LayoutAboutToChange() {}
func (nopObserver) LayoutChanged()       {}
func (nopObserver) ItemChanged(int)      {}
