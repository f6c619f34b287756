package host

import (
	"fmt"
	"strings"
)

// Class is the coarse classification of a tracked entity.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassMain
	ClassPet
	ClassEnemy
	ClassBoss
	ClassNPC
	ClassNeutral
)

var classNames = [...]string{
	ClassUnknown: "unknown",
	ClassMain:    "main",
	ClassPet:     "pet",
	ClassEnemy:   "enemy",
	ClassBoss:    "boss",
	ClassNPC:     "npc",
	ClassNeutral: "neutral",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Classes lists every known class in declaration order.
func Classes() []Class {
	return []Class{ClassUnknown, ClassMain, ClassPet, ClassEnemy, ClassBoss, ClassNPC, ClassNeutral}
}

// ParseClass accepts the lower-case names used in data files.
func ParseClass(s string) (Class, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range classNames {
		if name == s {
			return Class(i), nil
		}
	}
	return ClassUnknown, fmt.Errorf("unknown class %q", s)
}

// UnmarshalText lets config and YAML decoders read classes by name.
func (c *Class) UnmarshalText(b []byte) error {
	v, err := ParseClass(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
