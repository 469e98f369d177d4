package restapi_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rankstack/rankstack-sync/internal/adapter"
	apihttp "github.com/rankstack/rankstack-sync/internal/api/http"
	"github.com/rankstack/rankstack-sync/internal/coordinator"
	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
	"github.com/rankstack/rankstack-sync/internal/store/memstore"
	"github.com/rankstack/rankstack-sync/internal/store/restapi"
	"github.com/rankstack/rankstack-sync/internal/store/storetest"
)

// newAPIStore runs the compliance suite over a real router. Deduplication is
// off so duplicate saves surface as 409 and map back to ErrDuplicateID, the
// behaviour the store contract requires of a driver.
func newAPIStore(t *testing.T) store.Store {
	t.Helper()
	nop := zerolog.Nop()
	local := adapter.NewStore(memstore.New(), "local", false, nop)
	coord := coordinator.New(coordinator.Params{
		Local:           local,
		DefaultStrategy: model.StrategyIntelligentMerge,
		Log:             nop,
	})
	require.NoError(t, coord.Initialize(false))

	srv := httptest.NewServer(apihttp.NewRouter(apihttp.RouterParams{Coordinator: coord}))
	t.Cleanup(srv.Close)

	return restapi.New(srv.URL, 5*time.Second)
}

func TestRestAPI_Compliance(t *testing.T) {
	storetest.Run(t, newAPIStore)
}

func TestRestAPI_HealthPing(t *testing.T) {
	st := newAPIStore(t).(*restapi.Store)
	require.NoError(t, st.HealthPing(context.Background()))
}
