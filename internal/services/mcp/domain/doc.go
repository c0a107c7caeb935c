// Package domain defines the MCP tools and resources exposed to content
// authoring agents: post listing, search, drafting, and publication.
package domain
