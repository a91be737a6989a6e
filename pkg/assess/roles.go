package assess

import "fmt"

// Tier is a qualitative fitness grade, ordered worst to best.
type Tier string

const (
	TierNotIdeal  Tier = "Not ideal"
	TierLimited   Tier = "Limited"
	TierFair      Tier = "Fair"
	TierGood      Tier = "Good"
	TierExcellent Tier = "Excellent"
)

// tierOrder ranks tiers for comparison in tests and sorting.
var tierOrder = map[Tier]int{
	TierNotIdeal:  0,
	TierLimited:   1,
	TierFair:      2,
	TierGood:      3,
	TierExcellent: 4,
}

// Less reports whether t ranks below other.
func (t Tier) Less(other Tier) bool {
	return tierOrder[t] < tierOrder[other]
}

// Role is one usage profile rated by the heuristics.
type Role string

const (
	RoleWorkstation Role = "Developer workstation"
	RoleServer      Role = "Developer server"
	RoleLLM         Role = "LLM / ML"
	RoleMedia       Role = "Media / streaming"
	RoleNAS         Role = "NAS / DB"
)

// Roles lists every rated role in display order.
var Roles = []Role{RoleWorkstation, RoleServer, RoleLLM, RoleMedia, RoleNAS}

// RoleRating is the verdict for one role.
type RoleRating struct {
	Tier    Tier     `json:"tier"`
	Summary string   `json:"summary"`
	Notes   []string `json:"notes,omitempty"`
}

// ratingRule is one row of a role's decision table. Rules are
// evaluated in order; the first matching rule decides the rating, and
// every table ends with a catch-all.
type ratingRule struct {
	when func(Metrics) bool
	rate func(Metrics) RoleRating
}

func always(Metrics) bool { return true }

var roleTables = map[Role][]ratingRule{
	RoleWorkstation: {
		{
			when: func(m Metrics) bool { return m.Threads >= 16 && m.RAMTotalGB >= 32 },
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierExcellent,
					Summary: "Plenty of CPU threads and RAM for IDEs, containers, and VMs."}
			},
		},
		{
			when: func(m Metrics) bool { return m.Threads >= 8 && m.RAMTotalGB >= 16 },
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierGood,
					Summary: "Solid balance; consider RAM or NVMe upgrades if workloads grow."}
			},
		},
		{
			when: always,
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierLimited,
					Summary: "Basic dev work only; more cores or RAM would help."}
			},
		},
	},
	RoleServer: {
		{
			when: func(m Metrics) bool { return m.RAMTotalGB >= 64 && m.Threads >= 24 },
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierGood,
					Summary: "Comfortable for multiple VMs or container stacks.",
					Notes:   serverBaseNotes(m)}
			},
		},
		{
			when: func(m Metrics) bool { return m.RAMTotalGB >= 32 && m.Threads >= 16 },
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierLimited,
					Summary: "Can host a few services; heavier use may need upgrades.",
					Notes: append(serverBaseNotes(m),
						"Consider more RAM or ECC platform for heavier multi-tenant loads.")}
			},
		},
		{
			when: always,
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierNotIdeal,
					Summary: "Upgrade RAM/CPU or offload heavier services.",
					Notes: append(serverBaseNotes(m),
						"Specs under typical server thresholds; keep workloads light.")}
			},
		},
	},
	RoleLLM: {
		{
			when: func(m Metrics) bool { return m.HasDedicatedGPU && m.GPUVRAMGB >= 16 },
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierFair,
					Summary: fmt.Sprintf("Discrete GPU with about %.1f GB VRAM supports small/medium models.", m.GPUVRAMGB)}
			},
		},
		{
			when: func(m Metrics) bool { return m.HasDedicatedGPU && m.GPUVRAMGB >= 8 },
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierLimited,
					Summary: fmt.Sprintf("Approximately %.1f GB VRAM; use distilled models or consider external GPU.", m.GPUVRAMGB),
					Notes:   []string{"VRAM limits you to compact or quantized models."}}
			},
		},
		{
			when: func(m Metrics) bool { return m.HasDedicatedGPU },
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierLimited,
					Summary: "Add a higher-VRAM GPU or use cloud resources for serious ML.",
					Notes:   []string{"GPU VRAM is minimal for ML; expect CPU-bound inference."}}
			},
		},
		{
			when: always,
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierNotIdeal,
					Summary: "Add a discrete GPU or use cloud resources.",
					Notes:   []string{"No discrete GPU detected; ML workloads will be CPU-bound and slow."}}
			},
		},
	},
	RoleMedia: {
		{
			when: func(m Metrics) bool { return m.HasDedicatedGPU },
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierGood,
					Summary: "Discrete GPU should accelerate encoding and multiple streams."}
			},
		},
		{
			when: always,
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierLimited,
					Summary: "Consider adding a discrete GPU or hardware encoder.",
					Notes:   []string{"Integrated graphics can handle light streaming; heavy multi-stream loads may struggle."}}
			},
		},
	},
	RoleNAS: {
		{
			when: func(m Metrics) bool { return m.StorageTotal >= 3 || m.StorageNVMe >= 2 },
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierFair,
					Summary: "Usable for lightweight NAS/DB duties.",
					Notes:   []string{"Multiple drives present; add redundancy (RAID/ZFS) as needed."}}
			},
		},
		{
			when: always,
			rate: func(m Metrics) RoleRating {
				return RoleRating{Tier: TierLimited,
					Summary: "Expand storage and consider ECC memory for reliability.",
					Notes:   []string{"Only one storage device detected; add more drives for redundancy and performance."}}
			},
		},
	},
}

func serverBaseNotes(m Metrics) []string {
	if m.Virtualization == "" {
		return nil
	}
	return []string{fmt.Sprintf("Virtualization extensions detected (%s).", m.Virtualization)}
}

// RateRoles applies each role's decision table to the metrics and
// returns exactly one rating per enumerated role.
func RateRoles(m Metrics) map[Role]RoleRating {
	ratings := make(map[Role]RoleRating, len(Roles))
	for _, role := range Roles {
		for _, rule := range roleTables[role] {
			if rule.when(m) {
				ratings[role] = rule.rate(m)
				break
			}
		}
	}
	return ratings
}
