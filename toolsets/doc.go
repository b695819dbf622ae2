// Package toolsets groups reference toolsets an agent can load as apps.
// Each subpackage exposes a tool.Toolset ready for registration.
package toolsets
