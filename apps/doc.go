// Package apps implements per-agent capability gating. A Manager knows every
// registered toolset and which of them are currently "loaded" (visible). The
// visible set feeds the capability section of the system prompt; the manager
// is itself a toolset (app_manager) so agents can list, load and unload apps.
package apps
