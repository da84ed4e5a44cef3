package tabbycat

import "github.com/Antigravity-finder/tabbycat/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing subpackages to
// depend on `types` without depending on the root `tabbycat` package, while
// still providing a convenient `tabbycat.Unit`, `tabbycat.Logger`, etc. for
// users.
type (
	Unit           = types.Unit
	Team           = types.Team
	Item           = types.Item
	Institution    = types.Institution
	Role           = types.Role
	RoleMap        = types.RoleMap
	UnitDiff       = types.UnitDiff
	ItemDiff       = types.ItemDiff
	Envelope       = types.Envelope
	Banner         = types.Banner
	InitialPayload = types.InitialPayload
	ShardingConfig = types.ShardingConfig
	SortMode       = types.SortMode
	MixMode        = types.MixMode
	ConnState      = types.ConnState
)

// Re-export interfaces and callback structs from the types package.
type (
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
	Hooks            = types.Hooks
)

// Re-export role and mode constants from the types package.
const (
	RoleChair     = types.RoleChair
	RolePanellist = types.RolePanellist
	RoleTrainee   = types.RoleTrainee

	SortBracket    = types.SortBracket
	SortImportance = types.SortImportance
	SortLiveness   = types.SortLiveness
	SortRoomRank   = types.SortRoomRank

	MixSequential  = types.MixSequential
	MixInterleaved = types.MixInterleaved
)
