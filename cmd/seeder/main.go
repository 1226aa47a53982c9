// Command seeder fills an answer bank with sample records for local testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/respostas"
	"github.com/poiesic/respostas/access"
	"github.com/poiesic/respostas/config"
	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/storage/csvfile"
)

var samples = []core.Fields{
	{DocumentType: core.DocumentTypeRequerimento, Authorship: "Dep. Federal Ana Souza - PSB/PE",
		ReceivedText: "Solicita informações sobre as ações de fiscalização ambiental realizadas na Amazônia Legal em 2024.",
		ReplyText:    "Encaminhamos o relatório consolidado das operações de fiscalização conduzidas no período."},
	{DocumentType: core.DocumentTypeRequerimento, Authorship: "Dep. Federal Carlos Lima - PL/MT",
		ReceivedText: "Requer dados sobre o número de autos de infração lavrados por desmatamento ilegal no Mato Grosso.",
		ReplyText:    "Segue planilha com os autos de infração lavrados, por município e por ano."},
	{DocumentType: core.DocumentTypeOficio, Authorship: "Ministério Público Federal",
		ReceivedText: "Solicita cópia integral do processo de licenciamento ambiental da rodovia BR-319.",
		ReplyText:    "O processo de licenciamento foi disponibilizado por meio de acesso externo no SEI."},
	{DocumentType: core.DocumentTypeIndicacao, Authorship: "Dep. Federal Marina Reis - REDE/AP",
		ReceivedText: "Sugere a criação de unidade de conservação na região do Cabo Orange.",
		ReplyText:    "A sugestão foi encaminhada à área técnica responsável pela criação de unidades de conservação."},
	{DocumentType: core.DocumentTypeRequerimento, Authorship: "Dep. Federal João Silva - PT/SP",
		ReceivedText: "Pede informações sobre o orçamento destinado ao combate a incêndios florestais.",
		ReplyText:    "Informamos a dotação orçamentária e a execução das ações de prevenção e combate a incêndios."},
	{DocumentType: core.DocumentTypeOficio, Authorship: "Tribunal de Contas da União",
		ReceivedText: "Requisita informações sobre a aplicação de recursos de compensação ambiental.",
		ReplyText:    "Apresentamos o demonstrativo de aplicação dos recursos de compensação ambiental por unidade."},
	{DocumentType: core.DocumentTypeRequerimento, Authorship: "Dep. Federal Paulo Mendes - MDB/PA",
		ReceivedText: "Solicita esclarecimentos sobre o embargo de propriedades rurais no sul do Pará.",
		ReplyText:    "Os embargos decorrem de desmatamento sem autorização, conforme lista anexa."},
	{DocumentType: core.DocumentTypeOutro, Authorship: "Associação de Moradores do Jalapão",
		ReceivedText: "Questiona as regras de visitação pública no parque estadual e a cobrança de ingressos.",
		ReplyText:    "As regras de visitação constam do plano de manejo, disponível no sítio eletrônico do órgão."},
	{DocumentType: core.DocumentTypeRequerimento, Authorship: "Dep. Federal Lúcia Prado - PSOL/RJ",
		ReceivedText: "Requer informações sobre a fiscalização da pesca ilegal em áreas marinhas protegidas.",
		ReplyText:    "Encaminhamos o balanço das operações de fiscalização da pesca nas áreas marinhas protegidas."},
	{DocumentType: core.DocumentTypeIndicacao, Authorship: "Dep. Federal Roberto Dias - PP/RS",
		ReceivedText: "Indica a ampliação do quadro de servidores nas unidades de fiscalização do Rio Grande do Sul.",
		ReplyText:    "A recomposição do quadro depende de autorização de concurso público pelo órgão central."},
}

var (
	seedFileName = flag.String("src", "", "CSV file of seed records in respostas.csv layout")
	configPath   = flag.String("config", "", "path to a TOML config file")
	password     = flag.String("password", "", "team password (default: the configured password)")
	batchSize    = flag.Int("batch", 5, "records per import batch")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// recordsFromFile returns an iterator over the records of a CSV file.
func recordsFromFile(filename string) (iter.Seq[*core.Record], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csvfile.ReadRecords(f)
	if err != nil {
		return nil, err
	}
	return recordsFromSlice(records), nil
}

// recordsFromSlice returns an iterator over a slice of records.
func recordsFromSlice(records []*core.Record) iter.Seq[*core.Record] {
	return func(yield func(*core.Record) bool) {
		for _, r := range records {
			if !yield(r) {
				return
			}
		}
	}
}

// sampleRecords numbers the built-in samples with synthetic SEI processes.
func sampleRecords() []*core.Record {
	records := make([]*core.Record, len(samples))
	for i, fields := range samples {
		fields.ProcessID = fmt.Sprintf("02000.%06d/2025-%02d", i+1, i%12+1)
		fields.DocumentNumber = fmt.Sprintf("%d/2025", 100+i)
		records[i] = &core.Record{Fields: fields}
	}
	return records
}

// importBatched reads from a source iterator and imports records in batches.
func importBatched(ctx context.Context, db *respostas.Database, sess access.Session, source iter.Seq[*core.Record], size int) (int, error) {
	batch := make([]*core.Record, 0, size)
	total := 0

	flush := func() error {
		n, err := db.Records().Import(ctx, sess, batch)
		if err != nil {
			return err
		}
		total += n
		slog.Info("imported batch", "records", n, "total", total)
		batch = batch[:0]
		return nil
	}

	for r := range source {
		batch = append(batch, r)
		if len(batch) == size {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	// Process any remaining records
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

func main() {
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	db, err := respostas.Open(cfg)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	pass := *password
	if pass == "" {
		pass = cfg.Access.Password
	}
	sess, err := db.Login(cfg.Access.User, pass)
	if err != nil {
		panic(err)
	}

	// Determine source of seed data
	var source iter.Seq[*core.Record]
	if *seedFileName != "" {
		source, err = recordsFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = recordsFromSlice(sampleRecords())
	}

	total, err := importBatched(context.Background(), db, sess, source, max(*batchSize, 1))
	if err != nil {
		panic(err)
	}
	slog.Info("seeding complete", "records", total)
}
