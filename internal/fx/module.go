package fx

import "go.uber.org/fx"

// AppModule reune todos os módulos da aplicação
var AppModule = fx.Options(
	ConfigModule,
	InfrastructureModule,
	DomainModule,
	RoutesModule,
	ServerModule,
	SchedulerModule,
)
