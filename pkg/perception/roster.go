package perception

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// DefaultGreetingID is the TTS id used for template greetings.
const DefaultGreetingID = "10000086"

// DefaultTemplates greet people who are recognised but not in the roster.
// Each contains one %s for the name.
var DefaultTemplates = []string{
	"你好呀！%s，今天过得怎么样？",
	"嗨！%s，希望你今天心情愉快！",
	"Hello! %s， 愿你今天充满能量！",
	"Hi！%s，认识你很高兴！",
}

// Member is a known person with a personal greeting.
type Member struct {
	CommandID  uint64 `yaml:"command_id"`
	Greeting   string `yaml:"greeting"`
	Department string `yaml:"department,omitempty"`
}

// Roster maps recognised names to greetings.
//
//	members:
//	  Alice:
//	    command_id: 100000000001
//	    greeting: "Alice, good morning!"
//	templates:
//	  - "Hello %s!"
type Roster struct {
	Members   map[string]Member `yaml:"members"`
	Templates []string          `yaml:"templates"`
}

// LoadRoster reads a YAML roster. An empty path yields an empty roster that
// greets everyone from DefaultTemplates.
func LoadRoster(path string) (*Roster, error) {
	r := &Roster{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read roster: %w", err)
		}
		if err := yaml.Unmarshal(data, r); err != nil {
			return nil, fmt.Errorf("parse roster %s: %w", path, err)
		}
	}
	for _, t := range r.Templates {
		if strings.Count(t, "%s") != 1 {
			return nil, fmt.Errorf("roster template %q must contain exactly one %%s", t)
		}
	}
	return r, nil
}

// Greeting builds the TTS request for name.
func (r *Roster) Greeting(name string) dog.TtsCommand {
	cmd := dog.TtsCommand{
		Priority: dog.TtsPriorityHigh,
		Mode:     dog.TtsModeClearBuffer,
	}
	if r != nil {
		if m, ok := r.Members[name]; ok {
			cmd.ID = strconv.FormatUint(m.CommandID, 10)
			cmd.Content = m.Greeting
			return cmd
		}
	}

	templates := DefaultTemplates
	if r != nil && len(r.Templates) > 0 {
		templates = r.Templates
	}
	cmd.ID = DefaultGreetingID
	cmd.Content = fmt.Sprintf(templates[rand.IntN(len(templates))], name)
	return cmd
}
