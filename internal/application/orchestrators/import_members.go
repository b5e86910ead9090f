package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/audit"
	"league/internal/domain/club"
	domain "league/internal/domain/member"
)

// ImportMembersInput carries the parsed CSV reader and import options.
// PRE: Reader is a valid CSV stream with a header row.
// POST: Returns aggregate counts and per-row errors; writes are skipped when DryRun=true.
// INVARIANT: Existing members are never deleted; IDs are preserved on update.
type ImportMembersInput struct {
	Actor      account.Account
	Reader     io.Reader
	DryRun     bool
	UpdateMode bool
}

// ImportMembersResult holds aggregate counts and per-row errors from an import run.
type ImportMembersResult struct {
	Total   int
	Created int
	Updated int
	Skipped int
	Errors  []ImportMembersRowError
	DryRun  bool
	Unknown []string
}

// ImportMembersRowError describes a validation or processing error for a single CSV row.
type ImportMembersRowError struct {
	Row     int
	Message string
}

// ClubSlugLookup resolves clubs by slug within an association.
type ClubSlugLookup interface {
	GetBySlug(ctx context.Context, associationID, slug string) (club.Club, error)
}

// ImportMembersDeps holds external dependencies for the import orchestrator.
type ImportMembersDeps struct {
	Members    MemberStore
	Clubs      ClubSlugLookup
	Audit      AuditWriter
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteImportMembers parses a CSV stream and creates or updates member records
// of the actor's association. The CLUB column holds a club slug.
// PRE: Actor is an association admin; CSV has at least NAME and EMAIL columns.
// POST: Members are created/updated/skipped according to DryRun and UpdateMode flags;
//
//	aggregate counts and per-row errors are returned; audit log is emitted.
//
// INVARIANT: When DryRun=true no writes occur; existing member IDs are always preserved on update.
func ExecuteImportMembers(ctx context.Context, input ImportMembersInput, deps ImportMembersDeps) (ImportMembersResult, error) {
	actor := input.Actor
	if err := actor.Authorize(actor.AssociationID, ""); err != nil {
		return ImportMembersResult{}, err
	}

	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportMembersResult{}, &ImportMembersValidationError{Message: "CSV header could not be read"}
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToUpper(strings.TrimSpace(h))] = i
	}

	if _, ok := colIdx["NAME"]; !ok {
		return ImportMembersResult{}, &ImportMembersValidationError{Message: "CSV missing required column: NAME"}
	}
	if _, ok := colIdx["EMAIL"]; !ok {
		return ImportMembersResult{}, &ImportMembersValidationError{Message: "CSV missing required column: EMAIL"}
	}

	known := map[string]bool{"ACCOUNTID": true, "NAME": true, "EMAIL": true, "ROLE": true, "STATUS": true, "CLUB": true}
	var unknownCols []string
	for _, h := range header {
		if !known[strings.ToUpper(strings.TrimSpace(h))] {
			unknownCols = append(unknownCols, h)
		}
	}

	getCol := func(row []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	clubIDs := map[string]string{} // slug -> ID, "" for unknown
	resolveClub := func(slug string) (string, bool) {
		if slug == "" {
			return "", true
		}
		if id, ok := clubIDs[slug]; ok {
			return id, id != ""
		}
		c, err := deps.Clubs.GetBySlug(ctx, actor.AssociationID, slug)
		if err != nil || c.IsArchived() {
			clubIDs[slug] = ""
			return "", false
		}
		clubIDs[slug] = c.ID
		return c.ID, true
	}

	result := ImportMembersResult{DryRun: input.DryRun, Unknown: unknownCols}
	rowNum := 1
	now := deps.Now()

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "malformed row"})
			continue
		}
		result.Total++

		name := getCol(row, "NAME")
		rawEmail := getCol(row, "EMAIL")

		if name == "" {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "name is required"})
			continue
		}

		addr, parseErr := mail.ParseAddress(rawEmail)
		if parseErr != nil {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "invalid email: " + rawEmail})
			continue
		}
		email := domain.NormalizeEmail(addr.Address)

		role := strings.ToLower(getCol(row, "ROLE"))
		if role != domain.RoleMember && role != domain.RoleCoach && role != domain.RoleBoard {
			role = domain.RoleMember
		}
		status := strings.ToLower(getCol(row, "STATUS"))
		if status != domain.StatusActive && status != domain.StatusInactive && status != domain.StatusArchived {
			status = domain.StatusActive
		}
		clubSlug := strings.ToLower(getCol(row, "CLUB"))
		clubID, ok := resolveClub(clubSlug)
		if !ok {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "unknown club: " + clubSlug})
			continue
		}
		accountID := getCol(row, "ACCOUNTID")

		existing, lookupErr := deps.Members.GetByEmail(ctx, actor.AssociationID, email)
		exists := lookupErr == nil

		if exists && !input.UpdateMode {
			result.Skipped++
			continue
		}

		var m domain.Member
		if exists {
			m = existing
			m.Name = name
			m.Role = role
			m.Status = status
			if clubSlug != "" {
				m.ClubID = clubID
			}
			if accountID != "" {
				m.AccountID = accountID
			}
		} else {
			m = domain.Member{
				ID:            deps.GenerateID(),
				AssociationID: actor.AssociationID,
				ClubID:        clubID,
				AccountID:     accountID,
				Name:          name,
				Email:         email,
				Role:          role,
				Status:        status,
				JoinedAt:      now,
			}
		}
		if err := m.Validate(); err != nil {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: err.Error()})
			continue
		}

		if input.DryRun {
			if exists {
				result.Updated++
			} else {
				result.Created++
			}
			continue
		}

		if err := deps.Members.Save(ctx, m); err != nil {
			slog.Error("member_event", "event", "import_save_failed", "row", rowNum, "email", email, "error", err)
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "save failed (see server log)"})
			continue
		}
		if exists {
			result.Updated++
		} else {
			result.Created++
		}
	}

	if !input.DryRun && result.Created+result.Updated > 0 {
		desc := fmt.Sprintf("created=%d updated=%d skipped=%d", result.Created, result.Updated, result.Skipped)
		if err := recordAudit(ctx, deps.Audit, actor, actor.AssociationID, audit.CategoryMember, audit.ActionCreate, "member_import", "", desc, now); err != nil {
			return result, err
		}
	}

	slog.Info("member_event",
		"event", "members_imported",
		"admin", actor.ID,
		"dry_run", input.DryRun,
		"update_mode", input.UpdateMode,
		"total", result.Total,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)

	return result, nil
}

// ImportMembersValidationError is returned when the CSV structure is invalid (e.g. missing required columns).
type ImportMembersValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ImportMembersValidationError) Error() string {
	return e.Message
}
