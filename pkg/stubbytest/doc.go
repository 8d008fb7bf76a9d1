// Package stubbytest runs stubby4j from Go tests.
//
// # Per-test servers
//
// New returns a server that writes its stubs to a temporary file, starts
// stubby4j on a free port and stops it when the test ends:
//
//	func TestClient(t *testing.T) {
//	    srv := stubbytest.New(t)
//
//	    srv.Stub("GET", "^/users/1$").
//	        WithStatus(200).
//	        WithJSON(User{ID: 1, Name: "Ada"}).
//	        Reply()
//
//	    url := srv.Start()
//
//	    resp, err := http.Get(url + "/users/1")
//	    ...
//	}
//
// By default the process backend runs the jar named by the STUBBY4J_JAR
// environment variable; WithFactory selects another backend.
//
// # Package-wide servers
//
// Main starts one stubby4j for every test in a package:
//
//	func TestMain(m *testing.M) {
//	    os.Exit(stubbytest.Main(m, stubby.Config{
//	        StubsFile: "testdata/stubs.yaml",
//	        HTTPPort:  8882,
//	        Mute:      true,
//	        Factory:   process.NewFactory(process.Options{Jar: "stubby4j.jar"}),
//	    }))
//	}
package stubbytest
