package strike

import "fmt"

// Kind is the closed set of strike patterns. Powerups are compile-time
// variants, not string tags, so resolution is an exhaustive switch.
type Kind int

const (
	Normal Kind = iota
	Cluster
	Missiles
	Nuke
)

var kindNames = map[Kind]string{
	Normal:   "normal",
	Cluster:  "cluster",
	Missiles: "missiles",
	Nuke:     "nuke",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a wire tag to a Kind. An empty tag means a normal strike.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "normal":
		return Normal, nil
	case "cluster":
		return Cluster, nil
	case "missiles":
		return Missiles, nil
	case "nuke":
		return Nuke, nil
	}
	return Normal, fmt.Errorf("strike: unknown kind %q", s)
}

// Quota returns the per-match usage limit for a kind; -1 means unlimited.
func (k Kind) Quota() int {
	switch k {
	case Cluster:
		return 2
	case Missiles:
		return 1
	case Nuke:
		return 1
	default:
		return -1
	}
}

// Usage tracks per-match powerup consumption for one player.
type Usage struct {
	Cluster  int `json:"cluster"`
	Missiles int `json:"missiles"`
	Nuke     int `json:"nuke"`
}

func (u Usage) count(k Kind) int {
	switch k {
	case Cluster:
		return u.Cluster
	case Missiles:
		return u.Missiles
	case Nuke:
		return u.Nuke
	default:
		return 0
	}
}

// Exhausted reports whether the quota for a kind has been used up.
func (u Usage) Exhausted(k Kind) bool {
	q := k.Quota()
	return q >= 0 && u.count(k) >= q
}

// Consume records one use of a powerup kind. Normal strikes are free.
func (u *Usage) Consume(k Kind) {
	switch k {
	case Cluster:
		u.Cluster++
	case Missiles:
		u.Missiles++
	case Nuke:
		u.Nuke++
	}
}
