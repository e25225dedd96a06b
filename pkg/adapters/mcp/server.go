package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/internal/presentation/tui"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DocumentsURI is the resource listing every archived document.
const DocumentsURI = "scribe://documents"

// ListResponse is the structured result of list_documents.
type ListResponse struct {
	IDs []string `json:"ids" jsonschema_description:"IDs of archived documents, oldest first"`
}

// DocumentArgs selects one archived document.
type DocumentArgs struct {
	ID string `json:"id"`
}

// Server exposes the document archive as an MCP Server.
type Server struct {
	store     ports.DocumentStore
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(store ports.DocumentStore, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		store:     store,
		mcpServer: server.NewMCPServer("scribe-mcp", version),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the IDs of archived embed documents."),
		mcp.WithOutputSchema[ListResponse](),
	), mcp.NewStructuredToolHandler(s.handleList))

	s.mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get an archived embed document with its title and ordered fields."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithOutputSchema[domain.DocumentRecord](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("render_document",
		mcp.WithDescription("Render an archived embed document as markdown."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID")),
	), s.handleRender)
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (ListResponse, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ListResponse{IDs: ids}, nil
}

func (s *Server) handleGet(ctx context.Context, _ mcp.CallToolRequest, args DocumentArgs) (domain.DocumentRecord, error) {
	if args.ID == "" {
		return domain.DocumentRecord{}, errors.New("id is required")
	}
	rec, err := s.store.Load(ctx, args.ID)
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("load %s: %w", args.ID, err)
	}
	return rec, nil
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.store.Load(ctx, id)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("document %s not found", id)), nil
	}
	if err != nil {
		s.logger.Error("MCP render: load failed", "document_id", id, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	return mcp.NewToolResultText(tui.EmbedMarkdown(rec.Embed)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DocumentsURI, "Archived Documents",
		mcp.WithResourceDescription("Every archived embed document"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		docs, err := s.loadAll(ctx)
		if err != nil {
			return nil, err
		}
		jsonBytes, err := json.Marshal(docs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode documents: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DocumentsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// loadAll skips documents that disappear between List and Load.
func (s *Server) loadAll(ctx context.Context) ([]domain.DocumentRecord, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	docs := make([]domain.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.store.Load(ctx, id)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load document %s: %w", id, err)
		}
		docs = append(docs, rec)
	}
	return docs, nil
}
