package router

// StrategyID names the response strategy bound to a category.
type StrategyID string

const (
	StrategyFactual     StrategyID = "respond_factual"
	StrategyAnalytical  StrategyID = "respond_analytical"
	StrategyComparison  StrategyID = "respond_comparison"
	StrategyDefinition  StrategyID = "respond_definition"
	StrategyCalculation StrategyID = "respond_calculation"
	StrategyDatetime    StrategyID = "respond_datetime"
	StrategyDefault     StrategyID = "respond_default"
)

// Route is the dispatcher. It never fails; unknown categories fall through to
// the default strategy.
func Route(c Category) StrategyID {
	switch c {
	case Factual:
		return StrategyFactual
	case Analytical:
		return StrategyAnalytical
	case Comparison:
		return StrategyComparison
	case Definition:
		return StrategyDefinition
	case Calculation:
		return StrategyCalculation
	case Datetime:
		return StrategyDatetime
	case Default:
		return StrategyDefault
	default:
		return StrategyDefault
	}
}
