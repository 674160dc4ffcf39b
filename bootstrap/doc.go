// Package bootstrap brings up a modelkit application: typed configuration,
// logging, optional OTLP telemetry, the model registry and the configured
// provider overrides.
//
// # Quick Start
//
//	var cfg MyConfig
//	if err := config.LoadConfig("catalog", &cfg); err != nil {
//	    log.Fatal(err)
//	}
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.OnStart(func(ctx context.Context) error {
//	    ids, err := model.RecordIDs(app.Registry)
//	    if err != nil {
//	        return err
//	    }
//	    return ids.Family().Install(myRecordIDProvider{})
//	})
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    id := app.Models.RecordIDs.Create("customers", "1001")
//	    ...
//	})
//
// Start-up runs in this order: model families are installed, OnStart hooks
// run, overrides from models.overrides are activated, then OnReady hooks
// run. With models.strict set an override naming an unknown family or
// alternative fails start-up; otherwise it is logged and skipped.
package bootstrap
