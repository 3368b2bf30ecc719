// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes cdmbridge conversion and catalog tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/bridge"
	"github.com/starford/cdmbridge/internal/logger"
)

const contractURI = "cdmbridge://wire-contract"

// Server wraps the MCP server with cdmbridge tools.
type Server struct {
	mcp *server.MCPServer
	svc *bridge.Service
}

// New creates a new MCP server with all cdmbridge tools registered.
func New(svc *bridge.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"cdmbridge",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("roundtrip_model_json",
		mcp.WithDescription("Read a model.json into the CDM object model and write it back. "+
			"Returns the re-emitted document and any conversion diagnostics. "+
			"Read the wire contract first via get_wire_contract."),
		mcp.WithString("model", mcp.Required(), mcp.Description("model.json document text")),
		mcp.WithString("folder", mcp.Required(), mcp.Description("Corpus folder the model lives in (e.g. local:/sales/)")),
	), s.roundTrip)

	s.mcp.AddTool(mcp.NewTool("export_cdm_folder",
		mcp.WithDescription("Render a model.json as CDM folder documents: one document per entity "+
			"plus the extension document."),
		mcp.WithString("model", mcp.Required(), mcp.Description("model.json document text")),
		mcp.WithString("folder", mcp.Required(), mcp.Description("Corpus folder the model lives in")),
		mcp.WithBoolean("write", mcp.Description("Store the documents next to the model")),
	), s.exportCdmFolder)

	s.mcp.AddTool(mcp.NewTool("load_cdm_document",
		mcp.WithDescription("Read a stored *.cdm.json document into the session corpus. "+
			"Returns its entity names, the document as written back and any diagnostics."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Corpus path of the document (e.g. local:/sales/Order.cdm.json)")),
	), s.loadCdmDocument)

	s.mcp.AddTool(mcp.NewTool("import_model_json",
		mcp.WithDescription("Fetch a model.json from an http(s) URL or a base64 data URI, "+
			"store it in the corpus and catalogue it."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:application/json;base64,... URI")),
		mcp.WithString("folder", mcp.Description("Target corpus folder (default: imports/<generated>/)")),
		mcp.WithBoolean("overwrite", mcp.Description("Replace an existing model.json")),
	), s.importModelJSON)

	s.mcp.AddTool(mcp.NewTool("list_manifests",
		mcp.WithDescription("List catalogued manifests."),
	), s.listManifests)

	s.mcp.AddTool(mcp.NewTool("list_entities",
		mcp.WithDescription("List catalogued entities, optionally of one manifest."),
		mcp.WithString("manifest", mcp.Description("Optional manifest corpus path")),
	), s.listEntities)

	s.mcp.AddTool(mcp.NewTool("search_entities",
		mcp.WithDescription("Full-text search through catalogued entity names, descriptions and attribute names."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchEntities)

	s.mcp.AddTool(mcp.NewTool("get_relationships",
		mcp.WithDescription("Find all catalogued relationships that touch an entity."),
		mcp.WithString("entity", mcp.Required(), mcp.Description("Entity name")),
	), s.getRelationships)

	s.mcp.AddTool(mcp.NewTool("get_wire_contract",
		mcp.WithDescription("Returns the model.json wire contract. "+
			"Call this before building models for the conversion tools."),
	), s.getWireContract)

	// Resource: wire contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Wire Contract",
			mcp.WithResourceDescription("model.json shape accepted by the conversion tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type convertResult struct {
	Model       json.RawMessage `json:"model"`
	Diagnostics []logger.Entry  `json:"diagnostics"`
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// errorResult turns a service error into a tool error the model can act on.
func errorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrInvalidWire):
		return mcp.NewToolResultError("invalid model.json: " + err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError("already exists: " + err.Error())
	case errors.Is(err, apperr.ErrUnsupported):
		return mcp.NewToolResultError("unsupported: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) roundTrip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, err := req.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder, err := req.RequireString("folder")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, diags, err := s.svc.RoundTripModelJSON(ctx, []byte(model), folder)
	if err != nil {
		return errorResult(err), nil
	}
	if diags == nil {
		diags = []logger.Entry{}
	}
	return jsonResult(convertResult{Model: out, Diagnostics: diags}), nil
}

func (s *Server) exportCdmFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, err := req.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder, err := req.RequireString("folder")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	write := false
	if v, bErr := req.RequireBool("write"); bErr == nil {
		write = v
	}
	exp, err := s.svc.ExportCdmFolder(ctx, []byte(model), folder, write)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(exp), nil
}

func (s *Server) loadCdmDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.LoadCdmFolderDocument(ctx, path)
	if err != nil {
		return errorResult(err), nil
	}
	if doc.Diagnostics == nil {
		doc.Diagnostics = []logger.Entry{}
	}
	return jsonResult(doc), nil
}

func (s *Server) listManifests(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.Manifests(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(items), nil
}

func (s *Server) listEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	manifest := ""
	if m, err := req.RequireString("manifest"); err == nil {
		manifest = m
	}
	items, err := s.svc.Entities(ctx, manifest)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(items), nil
}

func (s *Server) searchEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.SearchEntities(ctx, query, 20)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(hits), nil
}

func (s *Server) getRelationships(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entity, err := req.RequireString("entity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rels, err := s.svc.Relationships(ctx, entity)
	if err != nil {
		return errorResult(err), nil
	}
	if len(rels) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no relationships found for %s", entity)), nil
	}
	return jsonResult(rels), nil
}

func (s *Server) getWireContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(WireContract), nil
}

func (s *Server) readContractResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     WireContract,
		},
	}, nil
}
