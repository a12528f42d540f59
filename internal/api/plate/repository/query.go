package plateRepository

const (
	querySaveConsultation = `
INSERT INTO consultas (placa, marca, modelo, uso, propietario, imagen_url, fecha_consulta, observaciones)
VALUES (:placa, :marca, :modelo, :uso, :propietario, :imagen_url, :fecha_consulta, '')`

	queryListConsultations = `
SELECT id, placa, marca, modelo, uso, propietario, imagen_url, fecha_consulta, observaciones
FROM consultas
    ORDER BY fecha_consulta DESC`

	queryUpdateObservation = `
UPDATE consultas
SET observaciones = :observaciones
    WHERE id = :id`

	queryDeleteConsultation = `
DELETE FROM consultas
    WHERE id = :id`

	queryUpsertReport = `
INSERT INTO reportes (placa, descripcion, fecha_reporte)
VALUES (:placa, :descripcion, :fecha_reporte)
ON CONFLICT (placa) DO UPDATE
    SET descripcion = EXCLUDED.descripcion,
        fecha_reporte = EXCLUDED.fecha_reporte`

	queryGetReportByPlate = `
SELECT id, placa, descripcion, fecha_reporte
FROM reportes
    WHERE placa = :placa`
)
