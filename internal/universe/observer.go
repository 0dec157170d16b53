package universe

// LayoutObserver receives every layout published by a [FocusController].
type LayoutObserver interface {
	OnLayoutComputed(result LayoutResult, focusIndex int, label string)
}

// ComparisonObserver receives every pair published by a [ComparisonController].
type ComparisonObserver interface {
	OnComparisonComputed(pair ComparisonPair)
}

// LayoutObserverFunc adapts a function to [LayoutObserver].
type LayoutObserverFunc func(result LayoutResult, focusIndex int, label string)

func (f LayoutObserverFunc) OnLayoutComputed(result LayoutResult, focusIndex int, label string) {
	f(result, focusIndex, label)
}

// ComparisonObserverFunc adapts a function to [ComparisonObserver].
type ComparisonObserverFunc func(pair ComparisonPair)

func (f ComparisonObserverFunc) OnComparisonComputed(pair ComparisonPair) { f(pair) }
