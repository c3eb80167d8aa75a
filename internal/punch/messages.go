package punch

const (
	commandPanel   = "bateponto"
	commandReport  = "horas"
	commandRanking = "ranking"
	optionUser     = "utilizador"

	commandPanelDescription   = "Publica o painel de bate ponto neste canal."
	commandReportDescription  = "Mostra o relatório de horas de um utilizador."
	commandRankingDescription = "Mostra o top 10 de horas acumuladas."
	optionUserDescription     = "Utilizador a consultar"

	buttonStart  = "bateponto_iniciar"
	buttonPause  = "bateponto_pausar"
	buttonEnd    = "bateponto_finalizar"
	buttonStatus = "bateponto_estado"
	buttonPrefix = "bateponto_"

	colorPanel  = 0x0099ff
	colorReport = 0xFFD700
	colorEnded  = 0x00FF00
	colorStatus = 0x5865F2

	panelTitle       = "⏰ Sistema de Bate Ponto"
	panelDescription = "Utiliza os botões abaixo para registar o teu tempo de trabalho."
	panelFooter      = "Sistema de Gestão de Staff"

	messageStarted        = "✅ Turno iniciado! Boa sorte no trabalho! 💪"
	messageAlreadyActive  = "❌ Já tens um turno ativo! Finaliza-o primeiro."
	messageNoActive       = "❌ Não tens nenhum turno ativo!"
	messagePaused         = "⏸️ Pausa iniciada! Descansa um pouco. ☕"
	messageResumed        = "▶️ Pausa terminada! De volta ao trabalho!"
	messageStorageFailed  = "⚠️ Não foi possível guardar o registo. Tenta novamente daqui a pouco."
	messageUnknownFailure = "⚠️ Ocorreu um erro inesperado."
	messageUnknownButton  = "⚠️ Botão desconhecido."
	messageUnknownCommand = "⚠️ Comando desconhecido."
	messageWrongGuild     = "⚠️ Este comando não está disponível neste servidor."
	messageAdminOnly      = "❌ Apenas administradores podem usar este comando!"
	messageReportUsage    = "❌ Uso correto: `/horas utilizador:@utilizador`"
	messageNoRecords      = "❌ Este utilizador ainda não tem registos!"
	messageNoRanking      = "❌ Ainda não há registos de horas!"

	endedTitle          = "✅ Turno Finalizado!"
	fieldWorked         = "⏱️ Tempo Trabalhado"
	fieldPauses         = "⏸️ Pausas"
	fieldTotal          = "📊 Total Acumulado"
	statusTitle         = "📋 Estado do Turno"
	statusIdle          = "Não tens nenhum turno ativo."
	fieldState          = "Estado"
	fieldStartedAt      = "🕒 Início"
	stateWorking        = "🟢 A trabalhar"
	statePaused         = "⏸️ Em pausa"
	reportTitleFormat   = "📊 Relatório de Horas - %s"
	fieldReportTotal    = "⏱️ Total de Horas"
	fieldReportSessions = "📝 Total de Sessões"
	fieldReportActive   = "🔄 Sessão Ativa"
	fieldReportRecent   = "📅 Últimas Sessões"
	rankingTitle        = "🏆 Ranking de Horas - Top 10"
	unknownReportUser   = "Utilizador Desconhecido"
	unknownRankingUser  = "Desconhecido"
	yes                 = "Sim"
	no                  = "Não"
)
