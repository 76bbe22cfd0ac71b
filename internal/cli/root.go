package cli

import (
	"context"
	"time"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/journal"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/alexanderramin/fieldops/internal/refcache"
	"github.com/spf13/cobra"
)

// Remote is the part of the API that is read or written directly, outside
// the reference cache and the batch orchestrator.
type Remote interface {
	GetZone(ctx context.Context, cred apiclient.Credential, zoneID string) (*apiclient.ZoneDetail, error)
	ListManpowerByZone(ctx context.Context, cred apiclient.Credential, zoneID string) ([]domain.UserRef, error)
	DriverSchedule(ctx context.Context, cred apiclient.Credential) ([]domain.ScheduleEntry, apiclient.ListMeta, error)
	ManpowerSchedule(ctx context.Context, cred apiclient.Credential) ([]domain.ScheduleEntry, apiclient.ListMeta, error)
	ZoneReport(ctx context.Context, cred apiclient.Credential) ([]domain.ZoneFigures, apiclient.ListMeta, error)
	SuperuserSummary(ctx context.Context, cred apiclient.Credential) (*domain.SystemSummary, error)
	ResetManager(ctx context.Context, cred apiclient.Credential) error
	ResetSupervisors(ctx context.Context, cred apiclient.Credential) error
}

// Reference serves the cached entity collections. Load feeds the pickers;
// Driver and Zone only answer for collections already loaded.
type Reference interface {
	Snapshot(ctx context.Context, cred apiclient.Credential) (*refcache.Snapshot, error)
	Load(ctx context.Context, cred apiclient.Credential, kind domain.EntityKind) ([]refcache.Option, error)
	Driver(id string) (domain.Driver, bool)
	Zone(id string) (domain.Zone, bool)
}

// Batches runs multi-call mutations. InFlight lists the entity keys whose
// calls are outstanding right now.
type Batches interface {
	Run(ctx context.Context, cred apiclient.Credential, intent orchestrator.Intent) (*orchestrator.Outcome, error)
	InFlight() []string
}

// History reads the local batch journal.
type History interface {
	List(ctx context.Context, limit int) ([]*journal.Run, error)
	Get(ctx context.Context, id string) (*journal.Run, error)
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// App holds everything the commands need. Credential is read once at the
// boundary and passed into every call.
type App struct {
	Credential apiclient.Credential
	API        Remote
	Reference  Reference
	Batches    Batches
	History    History

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Only used when IsInteractive is true.
	Confirm func(title string) (bool, error)
	// Choose picks ids from options, one unless multiple is set. Only used
	// when IsInteractive is true.
	Choose func(title string, options []refcache.Option, selected []string, multiple bool) ([]string, error)
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "fieldops" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "fieldops",
		Short:         "Field services operations console",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		newZonesCmd(app),
		newVehiclesCmd(app),
		newDriversCmd(app),
		newManpowerCmd(app),
		newScheduleCmd(app),
		newReportCmd(app),
		newSummaryCmd(app),
		newResetCmd(app),
		newHistoryCmd(app),
		newCheckCmd(app),
	)

	return root
}
