// Package clientcli is the client library behind depot-cli.
//
// It speaks the action API of a depot server: every operation is a GET or
// POST on the server root with an "action" query parameter. Profiles in a
// YAML file let the CLI switch between servers.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:5708"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./a.jpg",
//		FileID:    "a.jpg",
//		Metadata:  `{"w":100}`,
//	})
//
//	link, _, err := client.Download(ctx, clientcli.DownloadOptions{FileID: "a.jpg"})
//	fmt.Println(link.URL, link.ExpiresAt)
//
// # Profiles
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("staging")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output
//
// NewFormatter picks a HumanFormatter or a JSONFormatter:
//
//	clientcli.NewFormatter(jsonOutput, quiet).FormatUpload(os.Stdout, results)
package clientcli
