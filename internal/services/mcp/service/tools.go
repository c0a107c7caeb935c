package service

import (
	"github.com/inkwellhq/inkwell/internal/services/ai"
	"github.com/inkwellhq/inkwell/internal/services/content"
	"github.com/inkwellhq/inkwell/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerContentTools registers the content authoring MCP tools.
func registerContentTools(mcpServer *mcp.Server, svc *content.Service, generator ai.Generator) {
	mcp.AddTool(mcpServer, domain.PostListTool(), domain.PostListHandler(svc))
	mcp.AddTool(mcpServer, domain.PostSearchTool(), domain.PostSearchHandler(svc))
	mcp.AddTool(mcpServer, domain.PostGetTool(), domain.PostGetHandler(svc))
	mcp.AddTool(mcpServer, domain.PostCreateTool(), domain.PostCreateHandler(svc))
	mcp.AddTool(mcpServer, domain.PostPublishTool(), domain.PostPublishHandler(svc))
	mcp.AddTool(mcpServer, domain.DraftGenerateTool(), domain.DraftGenerateHandler(generator))
}

// registerContentResources registers readable taxonomy MCP resources.
func registerContentResources(mcpServer *mcp.Server, svc *content.Service) {
	mcpServer.AddResource(domain.CategoryListResource(), domain.CategoryListResourceHandler(svc))
	mcpServer.AddResource(domain.TagListResource(), domain.TagListResourceHandler(svc))
}
