package apps

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/tool"
)

// ToolsetID is the id of the manager's own toolset. It is always loaded.
const ToolsetID = "app_manager"

var managerDetails = core.ToolsetDetails{
	ToolsetID:   ToolsetID,
	Name:        "App Manager",
	Description: "Manages apps. Tools available are from loaded apps. An app must be loaded to be used.",
}

var appIDArg = core.ToolArgument{
	Name:        "app_id",
	Type:        "str",
	Description: "the toolset_id of the app",
	// app_name is accepted as an alias, so app_id itself cannot be required.
	Optional: true,
}

var managerSchemas = []core.ToolSchema{
	{ToolsetID: ToolsetID, Name: "list_apps", Description: "gets a list of all apps, you can only call tools from loaded apps"},
	{ToolsetID: ToolsetID, Name: "load_app", Description: "loads an app, this makes their tools available to you to call.", Arguments: []core.ToolArgument{appIDArg}},
	{ToolsetID: ToolsetID, Name: "unload_app", Description: "unloads an app.", Arguments: []core.ToolArgument{appIDArg}},
	{ToolsetID: ToolsetID, Name: "get_app_tool_list", Description: "gets a list of all tools available for an app", Arguments: []core.ToolArgument{appIDArg}},
	{ToolsetID: ToolsetID, Name: "get_loaded_apps", Description: "gets details of currently loaded apps and their tools"},
}

// Manager tracks which registered toolsets ("apps") are visible to one agent.
// Visibility only shapes the prompt; dispatch does not consult it.
// All methods are safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	order   []string
	apps    map[string]core.ToolsetDetails
	schemas map[string][]core.ToolSchema
	loaded  map[string]bool
}

// NewManager creates a manager that knows only about itself.
func NewManager() *Manager {
	m := &Manager{
		apps:    make(map[string]core.ToolsetDetails),
		schemas: make(map[string][]core.ToolSchema),
		loaded:  map[string]bool{ToolsetID: true},
	}
	m.Add(managerDetails, managerSchemas)
	return m
}

// Add registers (or replaces) an app. Registration order is preserved.
func (m *Manager) Add(details core.ToolsetDetails, schemas []core.ToolSchema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.apps[details.ToolsetID]; !exists {
		m.order = append(m.order, details.ToolsetID)
	}
	m.apps[details.ToolsetID] = details
	m.schemas[details.ToolsetID] = append([]core.ToolSchema(nil), schemas...)
}

// AddToolset registers the descriptor and schemas of ts.
func (m *Manager) AddToolset(ts tool.Toolset) { m.Add(ts.Describe(), ts.Schemas()) }

// Remove forgets an app. The manager itself cannot be removed.
func (m *Manager) Remove(id string) {
	if id == ToolsetID {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[id]; !ok {
		return
	}
	delete(m.apps, id)
	delete(m.schemas, id)
	delete(m.loaded, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// List renders all apps, loaded first, each group sorted by name, followed by
// the manager's own tools.
func (m *Manager) List() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var loaded, unloaded []core.ToolsetDetails
	for _, id := range m.order {
		if m.loaded[id] {
			loaded = append(loaded, m.apps[id])
		} else {
			unloaded = append(unloaded, m.apps[id])
		}
	}
	byName := func(s []core.ToolsetDetails) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	}
	byName(loaded)
	byName(unloaded)

	var sb strings.Builder
	sb.WriteString("Available apps:\n")
	for _, app := range loaded {
		fmt.Fprintf(&sb, "    [loaded] %s - %s - %s\n", app.ToolsetID, app.Name, app.Description)
	}
	for _, app := range unloaded {
		fmt.Fprintf(&sb, "    [unloaded] %s - %s - %s\n", app.ToolsetID, app.Name, app.Description)
	}
	sb.WriteString("\nApp Manager Tools:\n")
	for _, s := range managerSchemas {
		names := make([]string, len(s.Arguments))
		for i, a := range s.Arguments {
			names[i] = a.Name
		}
		fmt.Fprintf(&sb, "  (toolset_id: %s) %s(%s) - description: %s\n", s.ToolsetID, s.Name, strings.Join(names, ","), s.Description)
	}
	return sb.String()
}

// Load makes an app visible. Loading a visible app again changes nothing.
func (m *Manager) Load(id string) string {
	m.mu.Lock()
	details, ok := m.apps[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Sprintf("App %s not found", id)
	}
	m.loaded[id] = true
	m.mu.Unlock()
	return fmt.Sprintf("Loaded app %s - %s\n%s", id, details.Name, m.ToolList(id))
}

// Unload hides an app. The manager itself cannot be unloaded.
func (m *Manager) Unload(id string) string {
	if id == ToolsetID {
		return "Cannot unload the app manager"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded[id] {
		return fmt.Sprintf("App %s is not loaded", id)
	}
	delete(m.loaded, id)
	return fmt.Sprintf("Unloaded app %s", id)
}

// ToolList renders the tools of one app.
func (m *Manager) ToolList(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	schemas, ok := m.schemas[id]
	if !ok {
		return fmt.Sprintf("App %s not found", id)
	}
	var sb strings.Builder
	sb.WriteString("Available Tools:\n")
	for _, s := range schemas {
		sb.WriteString("        " + s.String() + "\n")
	}
	return sb.String()
}

// LoadedApps renders the tools of every visible app.
func (m *Manager) LoadedApps() string {
	var sb strings.Builder
	sb.WriteString("Available Tools:\n")
	sb.WriteString("(note: these are the only tools available to you at this time)\n")
	for _, s := range m.VisibleSchemas() {
		sb.WriteString("        " + s.String() + "\n")
	}
	return sb.String()
}

// IsLoaded reports whether an app is visible.
func (m *Manager) IsLoaded(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded[id]
}

// Loaded returns the ids of visible apps in registration order.
func (m *Manager) Loaded() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.loaded))
	for _, id := range m.order {
		if m.loaded[id] {
			out = append(out, id)
		}
	}
	return out
}

// VisibleSchemas flattens the schemas of visible apps in registration order.
func (m *Manager) VisibleSchemas() []core.ToolSchema {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.ToolSchema
	for _, id := range m.order {
		if m.loaded[id] {
			out = append(out, m.schemas[id]...)
		}
	}
	return out
}

// Describe implements tool.Toolset.
func (m *Manager) Describe() core.ToolsetDetails { return managerDetails }

// Schemas implements tool.Toolset.
func (m *Manager) Schemas() []core.ToolSchema {
	return append([]core.ToolSchema(nil), managerSchemas...)
}

// Handle implements tool.Toolset.
func (m *Manager) Handle(_ context.Context, _ tool.Caller, call core.ToolCall) (any, error) {
	switch call.Name {
	case "list_apps":
		return m.List(), nil
	case "get_loaded_apps":
		return m.LoadedApps(), nil
	case "load_app", "unload_app", "get_app_tool_list":
		id, err := appID(call.Arguments)
		if err != nil {
			return nil, err
		}
		switch call.Name {
		case "load_app":
			return m.Load(id), nil
		case "unload_app":
			return m.Unload(id), nil
		default:
			return m.ToolList(id), nil
		}
	default:
		return nil, tool.NewToolError(call.Name, fmt.Sprintf("Tool %s not found", call.Name), tool.CodeUnknownTool)
	}
}

// appID resolves the target app, preferring the app_name alias like the
// agents commonly emit it.
func appID(args map[string]any) (string, error) {
	if name, err := tool.StringArg(args, "app_name"); err == nil {
		return name, nil
	}
	return tool.StringArg(args, "app_id")
}

var _ tool.Toolset = (*Manager)(nil)
